package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage keeps Offset far from int overflow.
	MaxPage = 1_000_000
)

type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByUpdatedAt SortField = "updated_at"
	SortByTitle     SortField = "title"
	SortByStatus    SortField = "status"
)

func (f SortField) IsValid() bool {
	switch f {
	case SortByCreatedAt, SortByUpdatedAt, SortByTitle, SortByStatus:
		return true
	}
	return false
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

func (d SortDirection) IsValid() bool {
	return d == SortAsc || d == SortDesc
}

type PaginationParams struct {
	Page          int
	Limit         int
	SortBy        SortField
	SortDirection SortDirection
}

func DefaultPagination() PaginationParams {
	return PaginationParams{
		Page:          DefaultPage,
		Limit:         DefaultLimit,
		SortBy:        SortByCreatedAt,
		SortDirection: SortDesc,
	}
}

// Validate reports the first out-of-range field. Values are never clamped.
func (p PaginationParams) Validate() error {
	if p.Page < 1 {
		return errors.New("page must be greater than or equal to 1")
	}
	if p.Page > MaxPage {
		return errors.New("page must be less than or equal to 1000000")
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return errors.New("limit must be between 1 and 100")
	}
	if !p.SortBy.IsValid() {
		return errors.New("sort_by must be one of created_at, updated_at, title, status")
	}
	if !p.SortDirection.IsValid() {
		return errors.New("sort_direction must be asc or desc")
	}
	return nil
}

func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

type TaskFilters struct {
	Status        *TaskStatus
	UserID        *uuid.UUID
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Search        string
}

type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

func NewPaginationMeta(p PaginationParams, total int64) PaginationMeta {
	var totalPages int
	if p.Limit > 0 {
		totalPages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return PaginationMeta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1,
	}
}

// TaskList is either a simple list (Pagination == nil) or a paginated
// list carrying its metadata. The variant is fixed when the list is built.
type TaskList struct {
	Tasks      []Task          `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

func NewSimpleList(tasks []Task) TaskList {
	if tasks == nil {
		tasks = []Task{}
	}
	return TaskList{Tasks: tasks}
}

func NewPaginatedList(tasks []Task, meta PaginationMeta) TaskList {
	if tasks == nil {
		tasks = []Task{}
	}
	return TaskList{Tasks: tasks, Pagination: &meta}
}

func (l TaskList) IsPaginated() bool {
	return l.Pagination != nil
}
