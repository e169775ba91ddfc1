package sqllang

import (
	"strconv"

	"github.com/pkg/errors"

	"minidb/catalog"
)

// ErrSyntax is returned for any input the parser cannot make sense of.
var ErrSyntax = errors.New("sqllang: syntax error")

// Parse lexes and parses one SQL statement.
func Parse(input string) (*Statement, error) {
	p := &parser{tokens: Lex(input)}
	return p.parseStatement()
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) cur() Token {
	if p.pos >= len(p.tokens) {
		return Token{Kind: KindEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) advance() Token {
	t := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k Kind) bool {
	if p.cur().Kind == k {
		p.advance()
		return true
	}
	return false
}

func (p *parser) parseStatement() (*Statement, error) {
	isExplain := false
	if p.cur().Kind == KindExplain {
		isExplain = true
		p.advance()
	}

	var stmt *Statement
	var err error
	switch p.cur().Kind {
	case KindCreate:
		stmt, err = p.parseCreate()
	case KindSelect:
		stmt, err = p.parseSelect()
	case KindInsert:
		stmt, err = p.parseInsert()
	case KindUpdate:
		stmt, err = p.parseUpdate()
	case KindDelete:
		stmt, err = p.parseDelete()
	default:
		return nil, errors.Wrap(ErrSyntax, "expected a statement keyword")
	}
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != KindEOF {
		return nil, errors.Wrapf(ErrSyntax, "unexpected trailing input %q", p.cur().Value)
	}
	stmt.IsExplain = isExplain
	return stmt, nil
}

func (p *parser) parseCreate() (*Statement, error) {
	p.advance() // CREATE
	switch p.cur().Kind {
	case KindTable:
		return p.parseCreateTable()
	case KindIndex:
		return p.parseCreateIndex()
	default:
		return nil, errors.Wrap(ErrSyntax, "expected TABLE or INDEX after CREATE")
	}
}

func (p *parser) parseCreateTable() (*Statement, error) {
	p.advance() // TABLE
	if p.cur().Kind != KindIdentifier {
		return nil, errors.Wrap(ErrSyntax, "expected table name")
	}
	stmt := &Statement{Kind: StmtCreateTable, TableName: p.advance().Value}

	if !p.expect(KindLParen) {
		return nil, errors.Wrap(ErrSyntax, "expected '(' after table name")
	}
	for p.cur().Kind != KindRParen && p.cur().Kind != KindEOF {
		if p.cur().Kind != KindIdentifier {
			return nil, errors.Wrap(ErrSyntax, "expected column name")
		}
		col := catalog.ColumnDef{Name: p.advance().Value}

		switch p.cur().Kind {
		case KindInt:
			col.Type = catalog.ColumnTypeInt
			p.advance()
		case KindVarchar:
			col.Type = catalog.ColumnTypeVarchar
			p.advance()
			if p.expect(KindLParen) {
				if p.cur().Kind == KindNumber {
					n, _ := strconv.Atoi(p.advance().Value)
					col.MaxLength = n
				}
				p.expect(KindRParen)
			}
		default:
			return nil, errors.Wrap(ErrSyntax, "expected column type")
		}

		if p.cur().Kind == KindPrimary {
			p.advance()
			if p.expect(KindKey) {
				col.PrimaryKey = true
			}
		}

		stmt.Columns = append(stmt.Columns, col)
		if p.cur().Kind == KindComma {
			p.advance()
		}
	}
	if !p.expect(KindRParen) {
		return nil, errors.Wrap(ErrSyntax, "expected ')' to close column list")
	}
	return stmt, nil
}

func (p *parser) parseCreateIndex() (*Statement, error) {
	p.advance() // INDEX
	stmt := &Statement{Kind: StmtCreateIndex}
	if !p.expect(KindOn) {
		return nil, errors.Wrap(ErrSyntax, "expected ON after CREATE INDEX")
	}
	if p.cur().Kind != KindIdentifier {
		return nil, errors.Wrap(ErrSyntax, "expected table name")
	}
	stmt.IndexTable = p.advance().Value
	if !p.expect(KindLParen) {
		return nil, errors.Wrap(ErrSyntax, "expected '(' after table name")
	}
	if p.cur().Kind != KindIdentifier {
		return nil, errors.Wrap(ErrSyntax, "expected column name")
	}
	stmt.IndexColumn = p.advance().Value
	if !p.expect(KindRParen) {
		return nil, errors.Wrap(ErrSyntax, "expected ')' after column name")
	}
	return stmt, nil
}

func (p *parser) parseWhere() (bool, string, string, error) {
	if p.cur().Kind != KindWhere {
		return false, "", "", nil
	}
	p.advance()
	if p.cur().Kind != KindIdentifier {
		return false, "", "", errors.Wrap(ErrSyntax, "expected column name after WHERE")
	}
	col := p.advance().Value
	if !p.expect(KindEquals) {
		return false, "", "", errors.Wrap(ErrSyntax, "expected '=' in WHERE clause")
	}
	switch p.cur().Kind {
	case KindNumber, KindString, KindIdentifier:
		return true, col, p.advance().Value, nil
	default:
		return false, "", "", errors.Wrap(ErrSyntax, "expected a value in WHERE clause")
	}
}

func (p *parser) parseSelect() (*Statement, error) {
	p.advance() // SELECT
	stmt := &Statement{Kind: StmtSelect, OrderAscending: true}

	switch p.cur().Kind {
	case KindCount, KindSum, KindAvg, KindMax, KindMin:
		stmt.HasAggregation = true
		stmt.AggKind = aggKindFor(p.advance().Kind)
		if p.expect(KindLParen) {
			if p.cur().Kind == KindAsterisk {
				stmt.AggColumn = "*"
				p.advance()
			} else if p.cur().Kind == KindIdentifier {
				stmt.AggColumn = p.advance().Value
			}
			p.expect(KindRParen)
		}
	case KindAsterisk:
		p.advance()
	default:
		return nil, errors.Wrap(ErrSyntax, "expected '*' or an aggregate after SELECT")
	}

	if p.cur().Kind == KindFrom {
		p.advance()
		if p.cur().Kind == KindIdentifier {
			stmt.FromTable = p.advance().Value
		}

		if p.cur().Kind == KindInner || p.cur().Kind == KindJoin {
			if p.cur().Kind == KindInner {
				p.advance()
			}
			if p.expect(KindJoin) {
				join := &JoinClause{LeftTable: stmt.FromTable}
				if p.cur().Kind == KindIdentifier {
					join.RightTable = p.advance().Value
				}
				if p.expect(KindOn) {
					if p.cur().Kind == KindIdentifier {
						tbl, col := splitDotted(p.advance().Value)
						if tbl != "" {
							join.LeftTable = tbl
						}
						join.LeftColumn = col
					}
					p.expect(KindEquals)
					if p.cur().Kind == KindIdentifier {
						tbl, col := splitDotted(p.advance().Value)
						if tbl != "" {
							join.RightTable = tbl
						}
						join.RightColumn = col
					}
				}
				stmt.HasJoin = true
				stmt.Join = join
			}
		}
	}

	has, col, val, err := p.parseWhere()
	if err != nil {
		return nil, err
	}
	stmt.HasWhere, stmt.WhereColumn, stmt.WhereValue = has, col, val

	if p.cur().Kind == KindOrder {
		p.advance()
		if p.expect(KindBy) && p.cur().Kind == KindIdentifier {
			stmt.OrderByColumn = p.advance().Value
			stmt.HasOrderBy = true
			switch p.cur().Kind {
			case KindAsc:
				stmt.OrderAscending = true
				p.advance()
			case KindDesc:
				stmt.OrderAscending = false
				p.advance()
			}
		}
	}

	if p.cur().Kind == KindLimit {
		p.advance()
		if p.cur().Kind == KindNumber {
			n, _ := strconv.Atoi(p.advance().Value)
			stmt.Limit = uint32(n)
			stmt.HasLimit = true
		}
	}

	return stmt, nil
}

func (p *parser) parseInsert() (*Statement, error) {
	p.advance() // INSERT
	stmt := &Statement{Kind: StmtInsert}

	if p.cur().Kind != KindNumber {
		return nil, errors.Wrap(ErrSyntax, "expected a numeric id after INSERT")
	}
	id, err := strconv.Atoi(p.advance().Value)
	if err != nil {
		return nil, errors.Wrap(ErrSyntax, "invalid id")
	}
	stmt.InsertID = uint32(id)

	if p.cur().Kind != KindIdentifier && p.cur().Kind != KindString {
		return nil, errors.Wrap(ErrSyntax, "expected a username")
	}
	stmt.InsertUsername = p.advance().Value

	if p.cur().Kind != KindIdentifier && p.cur().Kind != KindString {
		return nil, errors.Wrap(ErrSyntax, "expected an email")
	}
	stmt.InsertEmail = p.advance().Value

	return stmt, nil
}

func (p *parser) parseUpdate() (*Statement, error) {
	p.advance() // UPDATE
	stmt := &Statement{Kind: StmtUpdate}

	if !p.expect(KindSet) {
		return nil, errors.Wrap(ErrSyntax, "expected SET after UPDATE")
	}
	if p.cur().Kind != KindIdentifier {
		return nil, errors.Wrap(ErrSyntax, "expected a column name after SET")
	}
	col := p.advance().Value
	if !p.expect(KindEquals) {
		return nil, errors.Wrap(ErrSyntax, "expected '=' after SET column")
	}
	switch p.cur().Kind {
	case KindNumber, KindString, KindIdentifier:
		stmt.Assignments = []Assignment{{Column: col, Value: p.advance().Value}}
	default:
		return nil, errors.Wrap(ErrSyntax, "expected a value after '='")
	}

	has, whereCol, whereVal, err := p.parseWhere()
	if err != nil {
		return nil, err
	}
	stmt.HasWhere, stmt.WhereColumn, stmt.WhereValue = has, whereCol, whereVal
	return stmt, nil
}

func (p *parser) parseDelete() (*Statement, error) {
	p.advance() // DELETE
	stmt := &Statement{Kind: StmtDelete}
	has, whereCol, whereVal, err := p.parseWhere()
	if err != nil {
		return nil, err
	}
	stmt.HasWhere, stmt.WhereColumn, stmt.WhereValue = has, whereCol, whereVal
	return stmt, nil
}

func aggKindFor(k Kind) AggKind {
	switch k {
	case KindCount:
		return AggCount
	case KindSum:
		return AggSum
	case KindAvg:
		return AggAvg
	case KindMax:
		return AggMax
	case KindMin:
		return AggMin
	default:
		return AggNone
	}
}

// splitDotted splits "table.column" into its two parts; if there's no
// dot, table is "" and column is the whole string.
func splitDotted(s string) (table, column string) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return s[:i], s[i+1:]
		}
	}
	return "", s
}
