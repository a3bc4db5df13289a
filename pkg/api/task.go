package api

import (
	"time"

	"github.com/trungvx/schedq/internal/state"
	"github.com/trungvx/schedq/internal/utils"
)

type SubmitTaskRequest struct {
	Name    string `json:"name"`
	Handler string `json:"handler"`

	Input        map[string]any `json:"input"`
	Priority     string         `json:"priority"`
	Timeout      utils.Duration `json:"timeout"`
	MaxRetries   int            `json:"maxRetries"`
	RetryDelay   utils.Duration `json:"retryDelay"`
	Dependencies []string       `json:"dependencies"`
	Tags         []string       `json:"tags"`
}

type SubmitTaskResponse struct {
	TaskId string `json:"taskId"`
}

type GetTaskRequest struct {
	TaskId string `in:"path=taskId"`
}

type TaskInfo struct {
	TaskId       string         `json:"taskId"`
	Name         string         `json:"name"`
	Priority     string         `json:"priority"`
	Status       string         `json:"status"`
	Dependencies []string       `json:"dependencies,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	Timeout      utils.Duration `json:"timeout"`
	MaxRetries   int            `json:"maxRetries"`
	RetryCount   int            `json:"retryCount"`
	CreatedAt    time.Time      `json:"createdAt"`
	StartedAt    *time.Time     `json:"startedAt,omitempty"`
	CompletedAt  *time.Time     `json:"completedAt,omitempty"`
	Error        string         `json:"error,omitempty"`
	Stuck        bool           `json:"stuck,omitempty"`
}

// FromTask converts an internal task record into its wire shape.
func FromTask(t state.Task) TaskInfo {
	info := TaskInfo{
		TaskId:       t.ID,
		Name:         t.Name,
		Priority:     t.Priority.String(),
		Status:       string(t.Status),
		Dependencies: t.Dependencies,
		Tags:         t.Tags,
		Timeout:      utils.Duration(t.Timeout),
		MaxRetries:   t.MaxRetries,
		RetryCount:   t.RetryCount,
		CreatedAt:    t.CreatedAt,
		StartedAt:    t.StartedAt,
		CompletedAt:  t.CompletedAt,
		Stuck:        t.Stuck,
	}
	if t.Err != nil {
		info.Error = t.Err.Error()
	}
	return info
}

type GetTaskResponse TaskInfo

type CancelTaskRequest struct {
	TaskId string `in:"path=taskId"`
}

type CancelTaskResponse struct {
	Cancelled bool `json:"cancelled"`
}

type ListTasksRequest struct {
	Page uint64 `in:"query=page"`
	Size uint64 `in:"query=size"`
}

type ListTasksResponse struct {
	Tasks []TaskInfo `json:"tasks"`
}

type AwaitResultRequest struct {
	TaskId  string `in:"path=taskId"`
	Timeout string `in:"query=timeout"`
}

type AwaitResultResponse struct {
	TaskId string `json:"taskId"`
	Result any    `json:"result"`
}

type StatsResponse struct {
	Submitted   uint64         `json:"submitted"`
	Pending     int            `json:"pending"`
	Running     int            `json:"running"`
	Completed   uint64         `json:"completed"`
	Failed      uint64         `json:"failed"`
	Cancelled   uint64         `json:"cancelled"`
	SuccessRate float64        `json:"successRate"`
	AvgLatency  utils.Duration `json:"avgLatency"`
	Utilization float64        `json:"utilization"`
}
