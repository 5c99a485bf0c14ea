package codec

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/fxamacker/cbor/v2"

	"github.com/ssargent/sigil/pkg/schema"
)

func simpleDataShape(t *testing.T) *schema.Shape {
	t.Helper()
	s, err := schema.New("SimpleData",
		schema.Int32("id"),
		schema.Text("name", 8),
		schema.Array("flags", schema.KindUint8, 4),
	)
	if err != nil {
		t.Fatalf("build shape: %v", err)
	}
	return s
}

func simpleDataRecord(t *testing.T) *Record {
	t.Helper()
	rec := NewRecord(simpleDataShape(t))
	rec.SetInt32(0, 123)
	if err := rec.SetText(1, "Test"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	for j, v := range []uint64{1, 2, 3, 4} {
		rec.SetElemUint(2, j, v)
	}
	return rec
}

func TestEncode_GoldenBytes(t *testing.T) {
	rec := simpleDataRecord(t)

	buf := make([]byte, 64)
	n, err := Encode(buf, rec)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := []byte{
		0x83,       // array of 3 fields
		0x18, 0x7b, // id = 123
		0x64, 'T', 'e', 's', 't', // name = "Test"
		0x84, 0x01, 0x02, 0x03, 0x04, // flags = [1, 2, 3, 4]
	}
	if !bytes.Equal(buf[:n], want) {
		t.Errorf("encoded % x, want % x", buf[:n], want)
	}
}

func TestDecode_GoldenBytes(t *testing.T) {
	data := []byte{0x83, 0x18, 0x7b, 0x64, 'T', 'e', 's', 't', 0x84, 0x01, 0x02, 0x03, 0x04}

	rec := NewRecord(simpleDataShape(t))
	if err := Decode(data, rec); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := rec.Int32(0); got != 123 {
		t.Errorf("id = %d, want 123", got)
	}
	if got := rec.Text(1); got != "Test" {
		t.Errorf("name = %q, want Test", got)
	}
	for j, want := range []uint64{1, 2, 3, 4} {
		if got := rec.ElemUint(2, j); got != want {
			t.Errorf("flags[%d] = %d, want %d", j, got, want)
		}
	}
}

func TestEncode_InteroperatesWithGenericCBOR(t *testing.T) {
	rec := simpleDataRecord(t)
	buf := make([]byte, 64)
	n, err := Encode(buf, rec)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// The output is plain CBOR; a generic decoder must accept it.
	var generic []any
	if err := cbor.Unmarshal(buf[:n], &generic); err != nil {
		t.Fatalf("generic CBOR decoder rejected the output: %v", err)
	}
	if len(generic) != 3 {
		t.Fatalf("generic decode yielded %d items, want 3", len(generic))
	}
	if id, ok := generic[0].(uint64); !ok || id != 123 {
		t.Errorf("item 0 = %#v, want uint64 123", generic[0])
	}
	if name, ok := generic[1].(string); !ok || name != "Test" {
		t.Errorf("item 1 = %#v, want \"Test\"", generic[1])
	}
	flags, ok := generic[2].([]any)
	if !ok || len(flags) != 4 {
		t.Fatalf("item 2 = %#v, want a 4-element array", generic[2])
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	point, err := schema.New("Point", schema.Float64("x"), schema.Float64("y"))
	if err != nil {
		t.Fatalf("build Point: %v", err)
	}
	shape, err := schema.New("Everything",
		schema.Bool("active"),
		schema.Int32("small"),
		schema.Int64("big"),
		schema.Uint8("tiny"),
		schema.Uint32("medium"),
		schema.Uint64("huge"),
		schema.Float32("ratio"),
		schema.Float64("precise"),
		schema.Text("label", 16),
		schema.Array("samples", schema.KindFloat64, 3),
		schema.Nested("origin", point),
		schema.OptionalText("note", 32),
		schema.OptionalScalar("rank", schema.KindInt32),
		schema.Skip("callback"),
	)
	if err != nil {
		t.Fatalf("build Everything: %v", err)
	}

	rec := NewRecord(shape)
	rec.SetBool(0, true)
	rec.SetInt32(1, -2000000000)
	rec.SetInt64(2, 1<<40)
	rec.SetUint8(3, 255)
	rec.SetUint32(4, 4000000000)
	rec.SetUint64(5, 1<<50)
	rec.SetFloat32(6, 0.25)
	rec.SetFloat64(7, 3.141592653589793)
	if err := rec.SetText(8, "fifteen bytes!!"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	for j, v := range []float64{1.5, -2.5, 0} {
		rec.SetElemFloat(9, j, v)
	}
	rec.Nested(10).SetFloat64(0, 1.0)
	rec.Nested(10).SetFloat64(1, -1.0)
	if err := rec.SetOptionalText(11, "present"); err != nil {
		t.Fatalf("SetOptionalText: %v", err)
	}
	rec.ClearOptional(12)

	buf := make([]byte, 256)
	n, err := Encode(buf, rec)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got := NewRecord(shape)
	if err := Decode(buf[:n], got); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !rec.Equal(got) {
		t.Error("decoded record differs from the original")
	}
	if _, present := got.OptionalInt(12); present {
		t.Error("absent optional decoded as present")
	}
	if note, present := got.OptionalText(11); !present || note != "present" {
		t.Errorf("note = %q, %v", note, present)
	}
}

func TestEncode_AbsentOptionalIsNull(t *testing.T) {
	shape, err := schema.New("S",
		schema.Int32("id"),
		schema.OptionalScalar("rank", schema.KindInt32),
		schema.Int32("tail"),
	)
	if err != nil {
		t.Fatalf("build shape: %v", err)
	}

	rec := NewRecord(shape)
	rec.SetInt32(0, 1)
	rec.ClearOptional(1)
	rec.SetInt32(2, 2)

	buf := make([]byte, 16)
	n, err := Encode(buf, rec)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	// Absence still occupies its position so later fields stay aligned.
	want := []byte{0x83, 0x01, 0xf6, 0x02}
	if !bytes.Equal(buf[:n], want) {
		t.Errorf("encoded % x, want % x", buf[:n], want)
	}
}

func TestDecode_OptionalOverwritesPreviousState(t *testing.T) {
	shape, err := schema.New("S", schema.OptionalScalar("rank", schema.KindInt64))
	if err != nil {
		t.Fatalf("build shape: %v", err)
	}

	rec := NewRecord(shape)
	rec.SetOptionalInt(0, 42)

	// Decoding an absent value into a record that held a present one
	// must clear it.
	if err := Decode([]byte{0x81, 0xf6}, rec); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if _, present := rec.OptionalInt(0); present {
		t.Error("decode of null left the field present")
	}

	if err := Decode([]byte{0x81, 0x07}, rec); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v, present := rec.OptionalInt(0); !present || v != 7 {
		t.Errorf("rank = %d, %v, want 7, true", v, present)
	}
}

func TestEncode_BufferFull(t *testing.T) {
	rec := simpleDataRecord(t)
	for size := 0; size < 13; size++ {
		if _, err := Encode(make([]byte, size), rec); !errors.Is(err, ErrBufferFull) {
			t.Errorf("size %d: got %v, want ErrBufferFull", size, err)
		}
	}
	if _, err := Encode(make([]byte, 13), rec); err != nil {
		t.Errorf("size 13: %v", err)
	}
}

func TestDecode_ShapeMismatch(t *testing.T) {
	golden := []byte{0x83, 0x18, 0x7b, 0x64, 'T', 'e', 's', 't', 0x84, 0x01, 0x02, 0x03, 0x04}

	t.Run("wrong top level count", func(t *testing.T) {
		data := append([]byte{}, golden...)
		data[0] = 0x82 // claims 2 fields instead of 3
		err := Decode(data, NewRecord(simpleDataShape(t)))
		if !errors.Is(err, ErrShapeMismatch) {
			t.Errorf("got %v, want ErrShapeMismatch", err)
		}
	})

	t.Run("wrong array count", func(t *testing.T) {
		data := append([]byte{}, golden...)
		data[8] = 0x83 // flags claims 3 elements instead of 4
		err := Decode(data[:12], NewRecord(simpleDataShape(t)))
		if !errors.Is(err, ErrShapeMismatch) {
			t.Errorf("got %v, want ErrShapeMismatch", err)
		}
	})

	t.Run("trailing bytes", func(t *testing.T) {
		data := append(append([]byte{}, golden...), 0x00)
		err := Decode(data, NewRecord(simpleDataShape(t)))
		if !errors.Is(err, ErrShapeMismatch) {
			t.Errorf("got %v, want ErrShapeMismatch", err)
		}
	})

	t.Run("not an array", func(t *testing.T) {
		err := Decode([]byte{0x01}, NewRecord(simpleDataShape(t)))
		if !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("got %v, want ErrTypeMismatch", err)
		}
	})
}

func TestDecode_TypeMismatch(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"text where int expected", []byte{0x83, 0x61, 'x', 0x64, 'T', 'e', 's', 't', 0x84, 0x01, 0x02, 0x03, 0x04}},
		{"int where text expected", []byte{0x83, 0x18, 0x7b, 0x07, 0x84, 0x01, 0x02, 0x03, 0x04}},
		{"int32 out of range", []byte{0x83, 0x1b, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe, 0x64, 'T', 'e', 's', 't', 0x84, 0x01, 0x02, 0x03, 0x04}},
		{"uint8 element out of range", []byte{0x83, 0x18, 0x7b, 0x64, 'T', 'e', 's', 't', 0x84, 0x19, 0x01, 0x00, 0x02, 0x03, 0x04}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Decode(tc.data, NewRecord(simpleDataShape(t)))
			if !errors.Is(err, ErrTypeMismatch) {
				t.Errorf("got %v, want ErrTypeMismatch", err)
			}
		})
	}
}

func TestDecode_TextOverflow(t *testing.T) {
	// "Toolong!" is 8 bytes; capacity 8 leaves room for only 7.
	data := []byte{0x83, 0x18, 0x7b, 0x68, 'T', 'o', 'o', 'l', 'o', 'n', 'g', '!', 0x84, 0x01, 0x02, 0x03, 0x04}

	rec := NewRecord(simpleDataShape(t))
	err := Decode(data, rec)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("got %v, want ErrOverflow", err)
	}
	// The oversized content must not have been copied at all.
	if got := rec.Text(1); got != "" {
		t.Errorf("buffer holds %q after rejected decode", got)
	}
}

func TestDecode_Truncated(t *testing.T) {
	golden := []byte{0x83, 0x18, 0x7b, 0x64, 'T', 'e', 's', 't', 0x84, 0x01, 0x02, 0x03, 0x04}

	for cut := 1; cut < len(golden); cut++ {
		err := Decode(golden[:cut], NewRecord(simpleDataShape(t)))
		if err == nil {
			t.Fatalf("Decode accepted input cut at %d bytes", cut)
		}
		if !errors.Is(err, ErrTruncated) && !errors.Is(err, ErrShapeMismatch) {
			t.Errorf("cut %d: got %v, want ErrTruncated or ErrShapeMismatch", cut, err)
		}
	}

	if err := Decode(nil, NewRecord(simpleDataShape(t))); !errors.Is(err, ErrTruncated) {
		t.Errorf("empty input: got %v, want ErrTruncated", err)
	}
}

func TestDecode_RejectsNonShortestForms(t *testing.T) {
	// 123 encoded with a two-byte argument instead of one.
	data := []byte{0x83, 0x19, 0x00, 0x7b, 0x64, 'T', 'e', 's', 't', 0x84, 0x01, 0x02, 0x03, 0x04}
	err := Decode(data, NewRecord(simpleDataShape(t)))
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("got %v, want ErrTruncated", err)
	}
}

func TestCodec_SkipFieldsHaveNoWireFootprint(t *testing.T) {
	withSkip, err := schema.New("S",
		schema.Skip("pre"),
		schema.Int32("id"),
		schema.Skip("mid"),
		schema.Text("name", 8),
		schema.Skip("post"),
	)
	if err != nil {
		t.Fatalf("build shape: %v", err)
	}
	without, err := schema.New("S2", schema.Int32("id"), schema.Text("name", 8))
	if err != nil {
		t.Fatalf("build shape: %v", err)
	}

	a := NewRecord(withSkip)
	a.SetInt32(1, 9)
	if err := a.SetText(3, "x"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	b := NewRecord(without)
	b.SetInt32(0, 9)
	if err := b.SetText(1, "x"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	bufA, bufB := make([]byte, 32), make([]byte, 32)
	na, err := Encode(bufA, a)
	if err != nil {
		t.Fatalf("Encode a: %v", err)
	}
	nb, err := Encode(bufB, b)
	if err != nil {
		t.Fatalf("Encode b: %v", err)
	}
	if !bytes.Equal(bufA[:na], bufB[:nb]) {
		t.Errorf("skip fields changed the wire bytes: % x vs % x", bufA[:na], bufB[:nb])
	}

	// And bytes from the skip-free shape decode into the skip-bearing one.
	back := NewRecord(withSkip)
	if err := Decode(bufB[:nb], back); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if back.Int32(1) != 9 || back.Text(3) != "x" {
		t.Error("skip-bearing decode lost field values")
	}
}

func TestCodec_NestedRecords(t *testing.T) {
	point, err := schema.New("Point", schema.Int32("x"), schema.Int32("y"))
	if err != nil {
		t.Fatalf("build Point: %v", err)
	}
	line, err := schema.New("Line", schema.Nested("a", point), schema.Nested("b", point))
	if err != nil {
		t.Fatalf("build Line: %v", err)
	}

	rec := NewRecord(line)
	rec.Nested(0).SetInt32(0, 1)
	rec.Nested(0).SetInt32(1, 2)
	rec.Nested(1).SetInt32(0, -3)
	rec.Nested(1).SetInt32(1, -4)

	buf := make([]byte, 32)
	n, err := Encode(buf, rec)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := []byte{0x82, 0x82, 0x01, 0x02, 0x82, 0x22, 0x23}
	if !bytes.Equal(buf[:n], want) {
		t.Errorf("encoded % x, want % x", buf[:n], want)
	}

	got := NewRecord(line)
	if err := Decode(buf[:n], got); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !rec.Equal(got) {
		t.Error("nested roundtrip mismatch")
	}
}
