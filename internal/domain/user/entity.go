package user

// User 用户实体
// 说明：用户身份由外部目录提供（当前为配置文件中的内存目录），
// 本服务只需要一个整数ID作为评论的归属
type User struct {
	ID           uint
	Username     string
	PasswordHash string // bcrypt哈希值
	Disabled     bool
}

// NewUser 创建用户（hashedPassword必须是bcrypt加密后的密码）
func NewUser(id uint, username, hashedPassword string) *User {
	return &User{
		ID:           id,
		Username:     username,
		PasswordHash: hashedPassword,
	}
}

// CanLogin 是否允许登录
func (u *User) CanLogin() bool {
	return !u.Disabled
}
