package engine

import (
	"database/sql"
	"database/sql/driver"
	"fmt"

	sqlite "modernc.org/sqlite"

	"github.com/poppart-mac/smartcomponents/vector"
)

// RegisterVectorFunctions registers vec_cosine and vec_l2 with the driver so
// they are available on new connections opened after this call.
// Note: existing open connections will not see new functions.
func RegisterVectorFunctions(_ *sql.DB) error {
	// Idempotent registration; driver rejects duplicates but we ignore errors silently here.
	_ = sqlite.RegisterDeterministicScalarFunction("vec_cosine", 2, vecCosineImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("vec_l2", 2, vecL2Impl)
	return nil
}

func asEmbedding(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return vector.DecodeEmbedding(v)
	default:
		return nil, fmt.Errorf("vec: unsupported argument type %T for embedding; want BLOB", arg)
	}
}

func vecCosineImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := embeddingArgs("vec_cosine", args)
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	return vector.CosineSimilarity(a, b)
}

func vecL2Impl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := embeddingArgs("vec_l2", args)
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	return vector.L2Distance(a, b)
}

func embeddingArgs(fn string, args []driver.Value) ([]float32, []float32, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("%s: expected 2 arguments, got %d", fn, len(args))
	}
	a, err := asEmbedding(args[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := asEmbedding(args[1])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
