// Package sqllang lexes and parses the SQL surface accepted by the
// REPL: CREATE TABLE/INDEX, INSERT, SELECT (with JOIN/WHERE/ORDER
// BY/LIMIT/aggregates), UPDATE, DELETE, and EXPLAIN.
package sqllang

// Kind identifies a lexical token.
type Kind int

const (
	KindEOF Kind = iota
	KindError

	KindSelect
	KindInsert
	KindUpdate
	KindDelete
	KindExplain
	KindCreate
	KindTable
	KindIndex
	KindJoin
	KindInner
	KindOn
	KindInt
	KindVarchar
	KindPrimary
	KindKey
	KindCount
	KindSum
	KindAvg
	KindMax
	KindMin
	KindOrder
	KindBy
	KindLimit
	KindAsc
	KindDesc
	KindSet
	KindWhere
	KindFrom

	KindIdentifier
	KindNumber
	KindString

	KindEquals
	KindComma
	KindAsterisk
	KindLParen
	KindRParen
	KindSemicolon
	KindDot
)

var keywords = map[string]Kind{
	"select":  KindSelect,
	"insert":  KindInsert,
	"update":  KindUpdate,
	"delete":  KindDelete,
	"explain": KindExplain,
	"create":  KindCreate,
	"table":   KindTable,
	"index":   KindIndex,
	"join":    KindJoin,
	"inner":   KindInner,
	"on":      KindOn,
	"int":     KindInt,
	"varchar": KindVarchar,
	"primary": KindPrimary,
	"key":     KindKey,
	"count":   KindCount,
	"sum":     KindSum,
	"avg":     KindAvg,
	"max":     KindMax,
	"min":     KindMin,
	"order":   KindOrder,
	"by":      KindBy,
	"limit":   KindLimit,
	"asc":     KindAsc,
	"desc":    KindDesc,
	"set":     KindSet,
	"where":   KindWhere,
	"from":    KindFrom,
}

// Token is one lexed unit: a kind plus its source text (meaningful
// for identifiers, numbers, and strings).
type Token struct {
	Kind  Kind
	Value string
}
