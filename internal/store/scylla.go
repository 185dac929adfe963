package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

const recordsSchema = `CREATE TABLE IF NOT EXISTS records (
	table_name text,
	id text,
	seq bigint,
	body text,
	PRIMARY KEY (table_name, id)
)`

// ScyllaClient stores every logical table as a partition of a single CQL table,
// one JSON document per row. Filters beyond the primary key are evaluated in
// memory after the partition scan, which is acceptable at catalog scale.
// Rows come back in insertion order (the seq column), not clustering order.
type ScyllaClient struct {
	session *gocql.Session
	seq     *sequencer
}

func NewScyllaClient(session *gocql.Session) *ScyllaClient {
	return &ScyllaClient{session: session, seq: newSequencer(time.Now)}
}

// EnsureSchema creates the records table in the session keyspace.
func (s *ScyllaClient) EnsureSchema(ctx context.Context) error {
	if err := s.session.Query(recordsSchema).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("create records table: %w", err)
	}
	return nil
}

func (s *ScyllaClient) Fetch(ctx context.Context, table string, q *Query) ([]Record, error) {
	rows, err := s.scan(ctx, table, q)
	if err != nil {
		return nil, err
	}
	return Apply(q, rows), nil
}

func (s *ScyllaClient) Count(ctx context.Context, table string, q *Query) (int, error) {
	rows, err := s.scan(ctx, table, q)
	if err != nil {
		return 0, err
	}
	return len(Apply(q.withoutWindow(), rows)), nil
}

func (s *ScyllaClient) Insert(ctx context.Context, table string, records ...Record) ([]Record, error) {
	inserted := make([]Record, 0, len(records))
	for _, r := range records {
		row := r.Clone()
		if row == nil {
			row = Record{}
		}
		if !row.Has("id") {
			row["id"] = uuid.NewString()
		}
		body, err := json.Marshal(row)
		if err != nil {
			return inserted, fmt.Errorf("encode %s row: %w", table, err)
		}
		err = s.session.Query(`INSERT INTO records (table_name, id, seq, body) VALUES (?, ?, ?, ?)`,
			table, row.String("id"), s.seq.next(), string(body)).WithContext(ctx).Exec()
		if err != nil {
			return inserted, fmt.Errorf("write %s/%s: %w", table, row.String("id"), err)
		}
		inserted = append(inserted, row)
	}
	return inserted, nil
}

func (s *ScyllaClient) Update(ctx context.Context, table string, q *Query, patch Record) ([]Record, error) {
	rows, err := s.Fetch(ctx, table, q)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		for k, v := range patch {
			row[k] = v
		}
		if err := s.put(ctx, table, row); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func (s *ScyllaClient) Delete(ctx context.Context, table string, q *Query) error {
	rows, err := s.Fetch(ctx, table, q)
	if err != nil {
		return err
	}
	for _, row := range rows {
		err := s.session.Query(`DELETE FROM records WHERE table_name = ? AND id = ?`, table, row.String("id")).
			WithContext(ctx).Exec()
		if err != nil {
			return fmt.Errorf("delete %s/%s: %w", table, row.String("id"), err)
		}
	}
	return nil
}

// scan reads the candidate rows: a single-row lookup when the query pins the id,
// the whole table partition otherwise.
func (s *ScyllaClient) scan(ctx context.Context, table string, q *Query) ([]Record, error) {
	var iter *gocql.Iter
	if id, ok := q.eqValue("id"); ok {
		iter = s.session.Query(`SELECT seq, body FROM records WHERE table_name = ? AND id = ?`, table, fmt.Sprint(id)).
			WithContext(ctx).Iter()
	} else {
		iter = s.session.Query(`SELECT seq, body FROM records WHERE table_name = ?`, table).
			WithContext(ctx).Iter()
	}

	var (
		rows []stampedRecord
		seq  int64
		body string
	)
	for iter.Scan(&seq, &body) {
		row, err := decodeRecord([]byte(body))
		if err != nil {
			_ = iter.Close()
			return nil, fmt.Errorf("decode %s row: %w", table, err)
		}
		rows = append(rows, stampedRecord{seq: seq, row: row})
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	return inInsertionOrder(rows), nil
}

type stampedRecord struct {
	seq int64
	row Record
}

// inInsertionOrder undoes the clustering order (random ids) so equal sort keys
// keep the order rows were written in.
func inInsertionOrder(rows []stampedRecord) []Record {
	slices.SortStableFunc(rows, func(a, b stampedRecord) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = r.row
	}
	return out
}

// sequencer hands out strictly increasing insertion stamps from the wall clock.
type sequencer struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func newSequencer(now func() time.Time) *sequencer {
	return &sequencer{now: now}
}

func (s *sequencer) next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.now().UnixNano()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return n
}

// put rewrites the body of an existing row and leaves its insertion stamp alone.
func (s *ScyllaClient) put(ctx context.Context, table string, row Record) error {
	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode %s row: %w", table, err)
	}
	err = s.session.Query(`UPDATE records SET body = ? WHERE table_name = ? AND id = ?`, string(body), table, row.String("id")).
		WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", table, row.String("id"), err)
	}
	return nil
}

// decodeRecord keeps numbers as json.Number so integer counters survive the round trip.
func decodeRecord(body []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var r Record
	if err := dec.Decode(&r); err != nil {
		return nil, err
	}
	return r, nil
}
