package ward

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	// Dialects used by the pg and sqlite repositories.
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"

	"github.com/ehr/wardadmin/internal/platform/db"
)

// sqlDialect pairs a goqu dialect with its case-insensitive substring match
// on patient names.
type sqlDialect struct {
	goqu.DialectWrapper
	nameContains func(term string) exp.Expression
}

var pgDialect = sqlDialect{
	DialectWrapper: goqu.Dialect("postgres"),
	nameContains: func(term string) exp.Expression {
		return goqu.L(`? ILIKE ? ESCAPE '\'`, goqu.C("name"), likePattern(term))
	},
}

// SQLite folds both sides with the Unicode-aware function registered by
// db.OpenSQLite; its own LIKE is case-insensitive for ASCII only.
var sqliteDialect = sqlDialect{
	DialectWrapper: goqu.Dialect("sqlite3"),
	nameContains: func(term string) exp.Expression {
		return goqu.L(db.SQLiteFoldFunc+`(?) LIKE ? ESCAPE '\'`, goqu.C("name"), likePattern(strings.ToLower(term)))
	},
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps term for a substring LIKE with its wildcards escaped, so
// "%" or "_" typed into the search box match literally.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

var patientColumns = []interface{}{
	"id", "name", "age", "condition", "symptoms", "infection_risk",
	"is_isolated", "room", "created_at", "updated_at",
}

var roomColumns = []interface{}{
	"id", "room_number", "type", "capacity", "is_available", "created_at", "updated_at",
}

func patientWhere(d sqlDialect, f PatientFilter) []exp.Expression {
	var where []exp.Expression
	if f.Name != "" {
		where = append(where, d.nameContains(f.Name))
	}
	if f.Condition != "" {
		where = append(where, goqu.C("condition").Eq(f.Condition))
	}
	if f.IsIsolated != nil {
		where = append(where, goqu.C("is_isolated").Eq(*f.IsIsolated))
	}
	if f.Room != "" {
		where = append(where, goqu.C("room").Eq(f.Room))
	}
	if f.Unassigned {
		where = append(where, goqu.C("room").IsNull())
	}
	return where
}

func roomWhere(f RoomFilter) []exp.Expression {
	if f.AvailableOnly {
		return []exp.Expression{goqu.C("is_available").Eq(true)}
	}
	return nil
}

// selectPatients builds the filtered listing; order is the insertion order
// of the store (seq in postgres, rowid in sqlite).
func selectPatients(d sqlDialect, f PatientFilter, order exp.OrderedExpression) (string, []interface{}, error) {
	return d.From("patients").
		Select(patientColumns...).
		Where(patientWhere(d, f)...).
		Order(order).
		Prepared(true).
		ToSQL()
}

func countPatients(d sqlDialect, f PatientFilter) (string, []interface{}, error) {
	return d.From("patients").
		Select(goqu.COUNT(goqu.Star())).
		Where(patientWhere(d, f)...).
		Prepared(true).
		ToSQL()
}

func distinctConditions(d sqlDialect) (string, []interface{}, error) {
	return d.From("patients").
		Select(goqu.C("condition")).
		Distinct().
		Order(goqu.C("condition").Asc()).
		Prepared(true).
		ToSQL()
}

func selectRooms(d sqlDialect, f RoomFilter, order exp.OrderedExpression) (string, []interface{}, error) {
	return d.From("rooms").
		Select(roomColumns...).
		Where(roomWhere(f)...).
		Order(order).
		Prepared(true).
		ToSQL()
}

func countRooms(d sqlDialect, f RoomFilter) (string, []interface{}, error) {
	return d.From("rooms").
		Select(goqu.COUNT(goqu.Star())).
		Where(roomWhere(f)...).
		Prepared(true).
		ToSQL()
}
