package sqldb

import (
	"context"
	"fmt"
	"log"
)

type targetFieldsProvider interface {
	TargetFields() []any
}

type Scannable[T any] interface {
	~*T                  // Type Constraint: Underlying Type(~) = *T
	targetFieldsProvider // must implement targetFieldsProvider
}

func QueryItem[
	M any, // Model struct
	MP Scannable[M], // *Model Implementing Scannable[M]
](ctx context.Context, h Handle, rawStmt string, args ...any) (*M, error) {
	row := h.QueryRow(ctx, rawStmt, args...)
	var item M     // struct with zero values for the fields
	p := MP(&item) // p is *M, which satisfies targetFieldsProvider interface
	if err := row.Scan(p.TargetFields()...); err != nil {
		return nil, err
	}
	return &item, nil
}

func QueryItems[
	M any, // Model struct
	MP Scannable[M], // *Model Implementing Scannable[M]
](ctx context.Context, h Handle, rawStmt string, args ...any) ([]*M, error) {
	rows, err := h.QueryRows(ctx, rawStmt, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("[WARN][SQLDB] rows.Close() failed: %v", err)
		}
	}()
	var itemPtrs []*M
	for rows.Next() {
		var item M
		p := MP(&item)
		// Scan the Fields of Each Row to the Fields of the new struct of the Model
		if err := rows.Scan(p.TargetFields()...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		itemPtrs = append(itemPtrs, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during iterating rows: %w", err)
	}
	return itemPtrs, nil
}
