package query

import (
	"fmt"
	"strings"
	"time"
)

// WorkPackageColumns is the column list of work_packages in scan order.
const WorkPackageColumns = "id, project_id, subject, description, status_id, assigned_to_email, author_id, lock_version, created_at, updated_at"

// snapshotSQL reconstructs every work package as of a timestamp: for each
// journable the journal with the highest version created at or before the
// timestamp. Work packages without such a journal did not exist yet.
const snapshotSQL = `SELECT DISTINCT ON (j.journable_id)
		j.journable_id AS id, j.project_id, j.subject, j.description, j.status_id, j.assigned_to_email
	FROM journals j
	WHERE j.created_at <= %s
	ORDER BY j.journable_id, j.version DESC`

// Args collects positional parameters.
type Args []any

// Add appends v and returns its placeholder.
func (a *Args) Add(v any) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}

// Statement is a compiled query.
type Statement struct {
	SQL  string
	Args []any
	// Timestamps are the resolved instants, indexed like the matches_at
	// column of the result rows.
	Timestamps []Timestamp
}

// Build compiles q into a statement returning the matched work packages in
// their current state, one row each, with columns
//
//	WorkPackageColumns..., matches_at int[], total_count bigint
//
// matches_at lists the indexes of the timestamps at which the row matched.
func Build(q Query, now time.Time, defaultLimit int) (Statement, error) {
	if err := q.Validate(0); err != nil {
		return Statement{}, err
	}

	var args Args
	timestamps := q.effectiveTimestamps()

	branches := make([]string, 0, len(timestamps))
	for i, ts := range timestamps {
		var source string
		if ts.IsCurrent(now) {
			source = "work_packages"
		} else {
			source = "(" + fmt.Sprintf(snapshotSQL, args.Add(ts.At(now))) + ")"
		}

		where, err := conditions(q.Filters, "wp", &args)
		if err != nil {
			return Statement{}, err
		}

		branches = append(branches, fmt.Sprintf("SELECT wp.id, %d AS ts_index FROM %s wp%s", i, source, where))
	}

	outer := []string{}
	if q.ProjectID != nil {
		outer = append(outer, "wp.project_id = "+args.Add(*q.ProjectID))
	}
	outerWhere := ""
	if len(outer) > 0 {
		outerWhere = " WHERE " + strings.Join(outer, " AND ")
	}

	limit := q.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	pagination := ""
	if limit > 0 {
		pagination += " LIMIT " + args.Add(limit)
	}
	if q.Offset > 0 {
		pagination += " OFFSET " + args.Add(q.Offset)
	}

	sql := fmt.Sprintf(`WITH matches AS (
	%s
)
SELECT %s,
	array_agg(DISTINCT m.ts_index ORDER BY m.ts_index) AS matches_at,
	count(*) OVER () AS total_count
FROM work_packages wp
JOIN matches m ON m.id = wp.id%s
GROUP BY wp.id
ORDER BY %s%s`,
		strings.Join(branches, "\n\tUNION ALL\n\t"),
		prefixColumns("wp", WorkPackageColumns),
		outerWhere,
		q.Sort.orderBy("wp"),
		pagination,
	)

	return Statement{SQL: sql, Args: args, Timestamps: timestamps}, nil
}

func conditions(filters []Filter, alias string, args *Args) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(filters))
	for _, f := range filters {
		clause, err := condition(f, alias, args)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	return " WHERE " + strings.Join(clauses, " AND "), nil
}

func condition(f Filter, alias string, args *Args) (string, error) {
	def := fields[f.Field]

	if def.kind == kindFileLink {
		// A work package linked twice to the same file still yields one row
		// because the link is tested with EXISTS.
		exists := fmt.Sprintf(`EXISTS (SELECT 1 FROM file_links fl
		JOIN project_storages ps ON ps.storage_id = fl.storage_id
		WHERE fl.container_id = %[1]s.id AND ps.project_id = %[1]s.project_id AND fl.origin_id = ANY(%[2]s))`,
			alias, args.Add(f.Values))
		if f.Operator == OpNotEquals {
			return "NOT " + exists, nil
		}
		return exists, nil
	}

	column := alias + "." + def.column

	switch f.Operator {
	case OpContains:
		return fmt.Sprintf("%s ILIKE %s", column, args.Add(containsPattern(f.Values[0]))), nil
	case OpNotContains:
		return fmt.Sprintf("(%s IS NULL OR %s NOT ILIKE %s)", column, column, args.Add(containsPattern(f.Values[0]))), nil
	case OpAny:
		if def.kind == kindText {
			return fmt.Sprintf("(%s IS NOT NULL AND %s <> '')", column, column), nil
		}
		return column + " IS NOT NULL", nil
	case OpNone:
		if def.kind == kindText {
			return fmt.Sprintf("(%s IS NULL OR %s = '')", column, column), nil
		}
		return column + " IS NULL", nil
	case OpEquals, OpNotEquals:
		var placeholder string
		if def.kind == kindInteger {
			values, err := f.intValues()
			if err != nil {
				return "", err
			}
			placeholder = args.Add(values)
		} else {
			placeholder = args.Add(f.Values)
		}
		if f.Operator == OpEquals {
			return fmt.Sprintf("%s = ANY(%s)", column, placeholder), nil
		}
		return fmt.Sprintf("(%s IS NULL OR NOT (%s = ANY(%s)))", column, column, placeholder), nil
	}

	return "", fmt.Errorf("unsupported operator %q", f.Operator)
}

// containsPattern escapes LIKE wildcards in term.
func containsPattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(term) + "%"
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}

// AtTimestampSQL selects the journal valid at $1 for each of the work
// packages in $2.
const AtTimestampSQL = `SELECT DISTINCT ON (j.journable_id)
	j.journable_id, j.version, j.project_id, j.subject, j.description, j.status_id, j.assigned_to_email
FROM journals j
WHERE j.created_at <= $1 AND j.journable_id = ANY($2)
ORDER BY j.journable_id, j.version DESC`
