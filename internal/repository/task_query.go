package repository

import (
	"fmt"
	"strings"

	"github.com/jaekwang-park/task-api/internal/model"
)

// sortColumns whitelists ORDER BY targets; user input never reaches SQL text.
var sortColumns = map[model.SortField]string{
	model.SortByCreatedAt: "created_at",
	model.SortByUpdatedAt: "updated_at",
	model.SortByTitle:     "title",
	model.SortByStatus:    "status",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// taskQuery accumulates WHERE predicates with positional arguments.
type taskQuery struct {
	conds []string
	args  []any
}

func (q *taskQuery) add(format string, arg any) {
	q.args = append(q.args, arg)
	q.conds = append(q.conds, fmt.Sprintf(format, len(q.args)))
}

func (q *taskQuery) where() string {
	if len(q.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conds, " AND ")
}

func buildTaskFilter(f model.TaskFilters) *taskQuery {
	q := &taskQuery{}

	if f.Status != nil {
		q.add("status = $%d", string(*f.Status))
	}
	if f.UserID != nil {
		q.add("user_id = $%d", *f.UserID)
	}
	if f.CreatedAfter != nil {
		q.add("created_at >= $%d", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		q.add("created_at <= $%d", *f.CreatedBefore)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.add("(title ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+likeEscaper.Replace(s)+"%")
	}
	return q
}

// orderClause assumes p has been validated; unknown values fall back to the defaults.
func orderClause(p model.PaginationParams) string {
	col, ok := sortColumns[p.SortBy]
	if !ok {
		col = sortColumns[model.SortByCreatedAt]
	}
	dir := "DESC"
	if p.SortDirection == model.SortAsc {
		dir = "ASC"
	}
	// id breaks ties so pages do not overlap
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir)
}

func (q *taskQuery) countSQL() string {
	return "SELECT COUNT(*) FROM tasks" + q.where()
}

func (q *taskQuery) pageSQL(p model.PaginationParams) (string, []any) {
	args := append(append([]any{}, q.args...), p.Limit, p.Offset())
	query := "SELECT " + taskColumns + " FROM tasks" + q.where() + orderClause(p) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return query, args
}
