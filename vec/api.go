package vec

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"

	"modernc.org/sqlite/vtab"

	"github.com/poppart-mac/smartcomponents/topk"
	"github.com/poppart-mac/smartcomponents/vector"
)

// Module implements vtab.Module for the vec virtual table. Each table is
// backed by a per-table shadow store; MATCH queries stream the shadow rows
// through the topk selector, so every search is a single bounded pass with
// no index blobs to build, persist, or invalidate.
type Module struct {
	db *sql.DB
}

// Table represents a single vec virtual table instance.
type Table struct {
	db        *sql.DB
	dbName    string
	tableName string
	shadow    string // qualified shadow table name (e.g. "main._vec_docs")
}

const (
	idxDatasetScan = iota
	idxDatasetMatch
	idxDatasetMatchScore
)

// row is a materialized result row held by an open cursor.
type row struct {
	rowid   int64
	dataset string
	id      string
	score   float64
}

// Cursor scans results from a vec table.
type Cursor struct {
	table *Table
	rows  []row
	pos   int
}

// Register registers the vec virtual table module with the provided *sql.DB.
func Register(db *sql.DB) error {
	if err := vtab.RegisterModule(db, "vec", &Module{db: db}); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
	}
	return nil
}

// Create initializes a vec table instance and ensures its shadow table.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.attach(ctx, args)
}

// Connect attaches to an existing vec table instance.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.attach(ctx, args)
}

func (m *Module) attach(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("vec: expected at least 3 args, got %d", len(args))
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("vec: EnableConstraintSupport failed: %w", err)
	}
	// Determine the declared column name (e.g. USING vec(doc_id)).
	col := "doc_id"
	if len(args) > 3 {
		if a := strings.TrimSpace(args[3]); a != "" && !strings.Contains(a, "=") {
			col = a
		}
	}
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(dataset_id TEXT, %s TEXT, match_score REAL HIDDEN)", args[2], col)); err != nil {
		return nil, err
	}
	t := &Table{db: m.db, dbName: args[1], tableName: args[2]}
	t.shadow = t.qualifiedShadow()
	return t, nil
}

// BestIndex pushes down the dataset equality, the MATCH constraint, and an
// optional match_score floor.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	var datasetConstraint, matchConstraint, scoreConstraint *vtab.Constraint
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		switch {
		case c.Column == 0 && c.Op == vtab.OpEQ:
			datasetConstraint = c
		case c.Column == 1 && c.Op == vtab.OpMATCH:
			matchConstraint = c
		case c.Column == 2 && (c.Op == vtab.OpGE || c.Op == vtab.OpGT):
			scoreConstraint = c
		}
	}
	if datasetConstraint == nil {
		return fmt.Errorf("vec: dataset_id constraint required")
	}

	nextArg := 0
	datasetConstraint.ArgIndex = nextArg
	datasetConstraint.Omit = true
	nextArg++

	if matchConstraint == nil {
		info.IdxNum = idxDatasetScan
		return nil
	}
	matchConstraint.ArgIndex = nextArg
	matchConstraint.Omit = true
	nextArg++
	if scoreConstraint == nil {
		info.IdxNum = idxDatasetMatch
		return nil
	}
	scoreConstraint.ArgIndex = nextArg
	scoreConstraint.Omit = true
	info.IdxNum = idxDatasetMatchScore
	return nil
}

// Open allocates a new cursor.
func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }

// Disconnect cleans up per-connection resources.
func (t *Table) Disconnect() error { return nil }

// Destroy drops nothing; the shadow table persists.
func (t *Table) Destroy() error { return nil }

// Filter computes the result set based on idxNum/vals.
func (c *Cursor) Filter(idxNum int, idxStr string, vals []vtab.Value) error {
	_ = idxStr
	c.rows = nil
	c.pos = 0
	if c.table == nil || c.table.db == nil {
		return nil
	}
	if len(vals) == 0 || vals[0] == nil {
		return fmt.Errorf("vec: dataset_id argument is required")
	}
	dataset, err := asString(vals[0])
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch idxNum {
	case idxDatasetScan:
		return c.scan(ctx, dataset)
	case idxDatasetMatch, idxDatasetMatchScore:
		if err := c.table.ensureShadow(); err != nil {
			return err
		}
		if len(vals) < 2 || vals[1] == nil {
			return fmt.Errorf("vec: MATCH argument is required")
		}
		qEmb, err := decodeMatchArg(vals[1])
		if err != nil {
			return err
		}
		minScore := float32(topk.NoMinSimilarity)
		if idxNum == idxDatasetMatchScore {
			if len(vals) < 3 {
				return fmt.Errorf("vec: missing match_score constraint")
			}
			min, err := asFloat(vals[2])
			if err != nil {
				return err
			}
			minScore = float32(min)
		}
		return c.match(ctx, dataset, qEmb, minScore)
	default:
		return fmt.Errorf("vec: unsupported query plan")
	}
}

// scan lists shadow rows for a dataset in rowid order.
func (c *Cursor) scan(ctx context.Context, dataset string) error {
	q := fmt.Sprintf("SELECT rowid, id FROM %s WHERE dataset_id = ? ORDER BY rowid", c.table.shadow)
	rows, err := c.table.db.QueryContext(ctx, q, dataset)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		r := row{dataset: dataset}
		if err := rows.Scan(&r.rowid, &r.id); err != nil {
			return err
		}
		c.rows = append(c.rows, r)
	}
	return rows.Err()
}

// match streams shadow rows through the selector and materializes the
// qualifying rows ordered most similar first. An uncapped selection is used
// because SQL callers bound the result with LIMIT.
func (c *Cursor) match(ctx context.Context, dataset string, qEmb []float32, minScore float32) error {
	query := vector.NewEmbedding(qEmb)
	q := fmt.Sprintf("SELECT rowid, id, embedding FROM %s WHERE dataset_id = ? AND embedding IS NOT NULL ORDER BY rowid", c.table.shadow)
	dbRows, err := c.table.db.QueryContext(ctx, q, dataset)
	if err != nil {
		return err
	}
	defer dbRows.Close()

	var iterErr error
	candidates := func(yield func(row, vector.Embedding) bool) {
		for dbRows.Next() {
			r := row{dataset: dataset}
			var blob []byte
			if err := dbRows.Scan(&r.rowid, &r.id, &blob); err != nil {
				iterErr = err
				return
			}
			emb, err := vector.DecodeEmbedding(blob)
			if err != nil {
				iterErr = fmt.Errorf("vec: row %s: %w", r.id, err)
				return
			}
			if len(emb) == 0 {
				continue
			}
			if len(emb) != query.Dimension() {
				iterErr = fmt.Errorf("vec: row %s embedding dim %d != query dim %d", r.id, len(emb), query.Dimension())
				return
			}
			if !yield(r, vector.NewEmbedding(emb)) {
				return
			}
		}
		iterErr = dbRows.Err()
	}

	scored, err := topk.Select(query, iter.Seq2[row, vector.Embedding](candidates), math.MaxInt, minScore)
	if err != nil {
		return err
	}
	if iterErr != nil {
		return iterErr
	}
	c.rows = make([]row, len(scored))
	for i, s := range scored {
		r := s.Item
		r.score = float64(s.Similarity)
		c.rows[i] = r
	}
	return nil
}

// decodeMatchArg accepts the query embedding as an encoded BLOB, a JSON
// array, a base64-encoded BLOB, or a CSV float list.
func decodeMatchArg(v interface{}) ([]float32, error) {
	switch val := v.(type) {
	case []byte:
		return vector.DecodeEmbedding(val)
	case string:
		return decodeMatchString(val)
	default:
		return nil, fmt.Errorf("vec: expected MATCH arg as BLOB or string, got %T", v)
	}
}

func decodeMatchString(raw string) ([]float32, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("vec: MATCH string is empty")
	}
	if strings.HasPrefix(s, "[") {
		var floats []float64
		if err := json.Unmarshal([]byte(s), &floats); err == nil {
			vec := make([]float32, len(floats))
			for i, f := range floats {
				vec[i] = float32(f)
			}
			return vec, nil
		}
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		if vec, err := vector.DecodeEmbedding(b); err == nil {
			return vec, nil
		}
	}
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		vec := make([]float32, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			f, err := strconv.ParseFloat(p, 32)
			if err != nil {
				return nil, fmt.Errorf("vec: invalid MATCH float %q: %w", p, err)
			}
			vec = append(vec, float32(f))
		}
		if len(vec) > 0 {
			return vec, nil
		}
	}
	return nil, fmt.Errorf("vec: MATCH string must be base64-encoded embedding or JSON/CSV float list")
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

// Eof reports end-of-rows.
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

// Column returns the value of a column in the current row.
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("vec: Column out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	switch col {
	case 0:
		return c.rows[c.pos].dataset, nil
	case 1:
		return c.rows[c.pos].id, nil
	case 2:
		return c.rows[c.pos].score, nil
	default:
		return nil, fmt.Errorf("vec: unsupported column %d", col)
	}
}

// Rowid returns the current rowid.
func (c *Cursor) Rowid() (int64, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return 0, fmt.Errorf("vec: Rowid out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	return c.rows[c.pos].rowid, nil
}

// Close releases resources.
func (c *Cursor) Close() error { c.rows = nil; c.pos = 0; return nil }

// ensureShadow ensures the per-table shadow table exists.
func (t *Table) ensureShadow() error {
	if t.db == nil {
		return fmt.Errorf("vec: db is nil")
	}
	stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    dataset_id TEXT NOT NULL,
    id TEXT NOT NULL,
    content TEXT,
    meta TEXT,
    embedding BLOB,
    PRIMARY KEY(dataset_id, id)
);
`, t.shadow)
	_, err := t.db.Exec(stmt)
	return err
}

// qualifiedShadow returns a fully-qualified shadow table name, prefixed with
// _vec_ to avoid clashes with user tables.
func (t *Table) qualifiedShadow() string {
	base := "_vec_" + t.tableName
	if strings.TrimSpace(t.dbName) == "" {
		return base
	}
	return t.dbName + "." + base
}

func asFloat(v vtab.Value) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	case []byte:
		f, err := strconv.ParseFloat(string(val), 64)
		if err != nil {
			return 0, fmt.Errorf("vec: cannot parse score %q: %w", string(val), err)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("vec: cannot parse score %q: %w", val, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("vec: unsupported score type %T", v)
	}
}

func asString(v vtab.Value) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case nil:
		return "", fmt.Errorf("vec: dataset_id is nil")
	default:
		return "", fmt.Errorf("vec: unsupported dataset_id type %T", v)
	}
}
