//go:build bench
// +build bench

package codec

import (
	"testing"

	"github.com/ssargent/sigil/pkg/schema"
)

func benchShape(b *testing.B) *schema.Shape {
	b.Helper()
	point, err := schema.New("Point", schema.Float64("x"), schema.Float64("y"))
	if err != nil {
		b.Fatalf("build Point: %v", err)
	}
	s, err := schema.New("Bench",
		schema.Int32("id"),
		schema.Text("name", 32),
		schema.Array("flags", schema.KindUint8, 8),
		schema.Nested("origin", point),
		schema.OptionalText("note", 64),
		schema.Float64("score"),
	)
	if err != nil {
		b.Fatalf("build Bench: %v", err)
	}
	return s
}

func benchRecord(b *testing.B, s *schema.Shape) *Record {
	b.Helper()
	rec := NewRecord(s)
	rec.SetInt32(0, 123456)
	if err := rec.SetText(1, "benchmark record name"); err != nil {
		b.Fatalf("SetText: %v", err)
	}
	for j := 0; j < 8; j++ {
		rec.SetElemUint(2, j, uint64(j))
	}
	rec.Nested(3).SetFloat64(0, 1.5)
	rec.Nested(3).SetFloat64(1, -2.5)
	if err := rec.SetOptionalText(4, "a present optional note"); err != nil {
		b.Fatalf("SetOptionalText: %v", err)
	}
	rec.SetFloat64(5, 3.14159)
	return rec
}

func BenchmarkEncode(b *testing.B) {
	s := benchShape(b)
	rec := benchRecord(b, s)
	buf := make([]byte, 256)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Encode(buf, rec); err != nil {
			b.Fatalf("Encode failed: %v", err)
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	s := benchShape(b)
	rec := benchRecord(b, s)
	buf := make([]byte, 256)
	n, err := Encode(buf, rec)
	if err != nil {
		b.Fatalf("Encode failed: %v", err)
	}
	data := buf[:n]
	target := NewRecord(s)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := Decode(data, target); err != nil {
			b.Fatalf("Decode failed: %v", err)
		}
	}
}

func BenchmarkRoundTrip(b *testing.B) {
	s := benchShape(b)
	rec := benchRecord(b, s)
	buf := make([]byte, 256)
	target := NewRecord(s)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n, err := Encode(buf, rec)
		if err != nil {
			b.Fatalf("Encode failed: %v", err)
		}
		if err := Decode(buf[:n], target); err != nil {
			b.Fatalf("Decode failed: %v", err)
		}
	}
}
