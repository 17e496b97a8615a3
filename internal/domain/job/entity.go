package job

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Kind 任务类型
type Kind string

const (
	KindRefreshSeed       Kind = "refresh_seed"       // 按种子列表刷新图书
	KindRefreshRemote     Kind = "refresh_remote"     // 从外部书目补全图书信息
	KindComputeStatistics Kind = "compute_statistics" // 统计
	KindNotify            Kind = "notify"             // 新书通知(只记日志)
)

// Kinds 全部任务类型
var Kinds = []Kind{KindRefreshSeed, KindRefreshRemote, KindComputeStatistics, KindNotify}

// Valid 是否为已知任务类型
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// State 任务状态
// 状态流转: pending → running → done | failed
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Active 是否尚未结束
func (s State) Active() bool {
	return s == StatePending || s == StateRunning
}

// ResultStatus 任务结果状态
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultPartial ResultStatus = "partial" // 部分条目失败
	ResultError   ResultStatus = "error"   // 整体失败且已回滚
)

// Result 任务结果
// 部分失败不抛错,而是体现在Status和Counts中
type Result struct {
	Status  ResultStatus     `json:"status"`
	Message string           `json:"message"`
	Counts  map[string]int64 `json:"counts,omitempty"`
	Details interface{}      `json:"details,omitempty"`
}

// Record 任务记录(状态存储中的一条)
type Record struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	State      State           `json:"state"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Result     *Result         `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

// NewRecord 创建待执行的任务记录
func NewRecord(kind Kind, payload interface{}) (*Record, error) {
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}

	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, ErrInvalidPayload.WithErr(err)
		}
		raw = b
	}

	return &Record{
		ID:        uuid.NewString(),
		Kind:      kind,
		State:     StatePending,
		Payload:   raw,
		CreatedAt: time.Now(),
	}, nil
}

// MarkRunning 开始执行
func (r *Record) MarkRunning(now time.Time) {
	r.State = StateRunning
	r.StartedAt = &now
}

// MarkDone 执行完成(结果状态可能是success/partial/error)
func (r *Record) MarkDone(result *Result, now time.Time) {
	r.State = StateDone
	r.Result = result
	r.FinishedAt = &now
}

// MarkFailed 执行失败(不可恢复的错误,如种子文件不可读)
func (r *Record) MarkFailed(err error, now time.Time) {
	r.State = StateFailed
	r.Error = err.Error()
	r.FinishedAt = &now
}

// SortByCreatedAt 按提交时间升序排列
func SortByCreatedAt(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}

// Handle 提交任务后返回给调用方的句柄
type Handle struct {
	ID    string `json:"task_id"`
	Kind  Kind   `json:"kind"`
	State State  `json:"state"`
}

// HandleOf 从记录生成句柄
func HandleOf(r *Record) *Handle {
	return &Handle{ID: r.ID, Kind: r.Kind, State: r.State}
}

// NotifyPayload 新书通知参数
type NotifyPayload struct {
	BookTitle  string `json:"book_title"`
	BookAuthor string `json:"book_author"`
}
