package mapping

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rowmap/pkg/types"
)

func TestAssign(t *testing.T) {
	type target struct {
		S     string
		I     int
		I8    int8
		U     uint32
		F     float64
		B     bool
		Bytes []byte
		P     *string
		T     time.Time
		N     sql.NullInt64
	}

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		field string
		raw   any
		want  any
	}{
		{"string", "S", "hello", "hello"},
		{"bytes to string", "S", []byte("hi"), "hi"},
		{"int64 to int", "I", int64(42), 42},
		{"string to int", "I", "7", 7},
		{"int64 to uint32", "U", int64(9), uint32(9)},
		{"float", "F", 1.5, 1.5},
		{"int to bool", "B", int64(1), true},
		{"string to bytes", "Bytes", "raw", []byte("raw")},
		{"pointer", "P", "x", func() *string { s := "x"; return &s }()},
		{"time", "T", ts, ts},
		{"scanner", "N", int64(3), sql.NullInt64{Int64: 3, Valid: true}},
		{"null scanner", "N", nil, sql.NullInt64{}},
		{"null pointer", "P", nil, (*string)(nil)},
		{"null int", "I", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst target
			dst.I = 99
			field := reflect.ValueOf(&dst).Elem().FieldByName(tt.field)
			require.NoError(t, Assign(field, tt.raw))
			assert.Equal(t, tt.want, field.Interface())
		})
	}
}

func TestAssign_Errors(t *testing.T) {
	var dst struct {
		I8 int8
		I  int
	}
	v := reflect.ValueOf(&dst).Elem()

	err := Assign(v.Field(0), int64(1000))
	assert.ErrorIs(t, err, types.ErrInvalidData)

	err = Assign(v.Field(1), "not a number")
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

func TestAssign_BytesAreCopied(t *testing.T) {
	var dst struct{ B []byte }
	raw := []byte("abc")
	require.NoError(t, Assign(reflect.ValueOf(&dst).Elem().Field(0), raw))
	raw[0] = 'z'
	assert.Equal(t, []byte("abc"), dst.B)
}

func TestBindValue(t *testing.T) {
	s := "x"
	var nilString *string
	assert.Equal(t, "x", BindValue(reflect.ValueOf(&s)))
	assert.Nil(t, BindValue(reflect.ValueOf(nilString)))
	assert.Equal(t, int64(5), BindValue(reflect.ValueOf(int64(5))))

	n := sql.NullInt64{Int64: 2, Valid: true}
	assert.Equal(t, n, BindValue(reflect.ValueOf(n)))
}

func TestNormalizeID(t *testing.T) {
	md := metadataFor[WithID](t)

	id, err := md.NormalizeID(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	id, err = md.NormalizeID("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, bad := range []any{nil, 0, int64(0), "nope"} {
		_, err := md.NormalizeID(bad)
		assert.ErrorIs(t, err, types.ErrInvalidID, "%v", bad)
	}

	smd := metadataFor[WithIDDeclaredLast](t)
	id, err = smd.NormalizeID("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
	_, err = smd.NormalizeID("")
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestSnapshot(t *testing.T) {
	md := metadataFor[WithNullable](t)
	nick := "nick"
	e := &WithNullable{ID: "a", Nickname: &nick, Blob: []byte("b")}
	v := reflect.ValueOf(e).Elem()

	snap := md.Snapshot(v)
	assert.Equal(t, "nick", snap["nickname"])
	for _, c := range md.ValueColumns() {
		assert.False(t, snap.Changed(c, v), c.ColumnName())
	}

	// Writes through the entity's own pointers and slices are still detected.
	nick = "other"
	e.Blob[0] = 'c'
	changed := map[string]bool{}
	for _, c := range md.ValueColumns() {
		changed[c.ColumnName()] = snap.Changed(c, v)
	}
	assert.Equal(t, map[string]bool{"id": false, "nickname": true, "score": false, "blob": true}, changed)

	e.Score = sql.NullInt64{Int64: 1, Valid: true}
	assert.True(t, snap.Changed(md.FieldColumns()[1], v))
}

func TestIDValue(t *testing.T) {
	md := metadataFor[WithID](t)

	id, ok := md.IDValue(reflect.ValueOf(WithID{ID: 4}))
	assert.True(t, ok)
	assert.Equal(t, int64(4), id)

	_, ok = md.IDValue(reflect.ValueOf(WithID{}))
	assert.False(t, ok)
}
