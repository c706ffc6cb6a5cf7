// Package persistence reads and writes documents as relaxed extended JSON,
// one record per line.
package persistence

import (
	"bufio"
	"context"
	"io"

	"github.com/dolmen-go/contextio"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vinicius-lino-figueiredo/gequery/adapter/cloner"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// DefaultCorruptAlertThreshold is the default rate of unreadable lines
// tolerated by [Persistence.Read].
const DefaultCorruptAlertThreshold = 0.1

// Record is a document stored in a named collection.
type Record struct {
	Collection string   `bson:"collection"`
	Document   domain.M `bson:"document"`
}

// Persistence reads and writes records.
type Persistence struct {
	corruptAlertThreshold float64
	canonical             bool
}

// NewPersistence returns a new Persistence.
func NewPersistence(options ...Option) *Persistence {
	p := Persistence{
		corruptAlertThreshold: DefaultCorruptAlertThreshold,
	}
	for _, option := range options {
		option(&p)
	}
	return &p
}

// Write writes each record in its own line. Cancelling ctx stops the write.
func (p *Persistence) Write(ctx context.Context, w io.Writer, records []Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	wr := bufio.NewWriter(contextio.NewWriter(ctx, w))
	for _, rec := range records {
		b, err := bson.MarshalExtJSON(rec, p.canonical, false)
		if err != nil {
			return err
		}
		if _, err := wr.Write(append(b, '\n')); err != nil {
			return err
		}
	}
	return wr.Flush()
}

// Read reads records written by [Persistence.Write]. Empty lines are ignored
// and unreadable ones are skipped, unless their rate exceeds the corrupt
// alert threshold.
func (p *Persistence) Read(ctx context.Context, r io.Reader) ([]Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var records []Record
	corruptItems, dataLength := 0, 0

	lineStream := bufio.NewScanner(contextio.NewReader(ctx, r))
	lineStream.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for lineStream.Scan() {
		line := lineStream.Bytes()
		if len(line) == 0 {
			continue
		}
		dataLength++
		var rec Record
		if err := bson.UnmarshalExtJSON(line, p.canonical, &rec); err != nil || rec.Collection == "" || rec.Document == nil {
			corruptItems++
			continue
		}
		rec.Document = cloner.NormalizeDoc(rec.Document)
		records = append(records, rec)
	}
	if err := lineStream.Err(); err != nil {
		return nil, err
	}

	if dataLength > 0 {
		corruptionRate := float64(corruptItems) / float64(dataLength)
		if corruptionRate > p.corruptAlertThreshold {
			return nil, domain.ErrCorruptFiles{
				CorruptionRate:        corruptionRate,
				CorruptItems:          corruptItems,
				DataLength:            dataLength,
				CorruptAlertThreshold: p.corruptAlertThreshold,
			}
		}
	}
	return records, nil
}
