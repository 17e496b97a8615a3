package dto

// LoginRequest 登录请求
// 同时支持JSON和表单（OAuth2 password模式的username/password字段）
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required,notblank,max=64"`
	Password string `json:"password" form:"password" binding:"required"`
}

// RefreshTokenRequest 刷新Token请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token" binding:"required"`
}
