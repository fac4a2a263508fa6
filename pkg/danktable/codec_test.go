package danktable_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/itzkitb/DankTables/pkg/danktable"
)

func Test_DecodeCell_Returns_Original_Value_When_Round_Tripping(t *testing.T) {
	t.Parallel()

	values := []danktable.Value{
		danktable.Null(),
		danktable.Bool(true),
		danktable.Bool(false),
		danktable.Number(0),
		danktable.Number(42),
		danktable.Number(-3.25),
		danktable.String(""),
		danktable.String("hello"),
		danktable.String("with:separator;and\nnewline"),
		danktable.String("ünïcödé ☃"),
		danktable.List(danktable.Number(1), danktable.String("two"), danktable.Null()),
		danktable.MapValue(map[string]danktable.Value{
			"nested": danktable.List(danktable.Bool(true)),
			"n":      danktable.Number(7),
		}),
	}

	for _, want := range values {
		token, err := danktable.EncodeCell(want)
		if err != nil {
			t.Fatalf("EncodeCell(%#v): %v", want, err)
		}

		got := danktable.DecodeCell(token)

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("round trip mismatch for %#v (-want +got):\n%s", want, diff)
		}
	}
}

func Test_EncodeCell_Token_Contains_No_Separator_Or_Newline_When_Value_Has_Both(t *testing.T) {
	t.Parallel()

	v := danktable.String("a:b;c\nd\re" + danktable.AbsentMarker)

	token, err := danktable.EncodeCell(v)
	if err != nil {
		t.Fatal(err)
	}

	if strings.ContainsAny(token, ":;\n\r") {
		t.Fatalf("token %q contains delimiter or line break", token)
	}
}

func Test_DecodeCell_Returns_Absent_When_Encoding_Absent_Marker(t *testing.T) {
	t.Parallel()

	token, err := danktable.EncodeCell(danktable.Absent())
	if err != nil {
		t.Fatal(err)
	}

	got := danktable.DecodeCell(token)
	if !got.IsAbsent() {
		t.Fatalf("got %#v, want absent", got)
	}
}

// A stored string equal to the sentinel is indistinguishable from an
// absent cell. This is the documented limitation of the format, pinned
// here so a change to it is a conscious one.
func Test_DecodeCell_Returns_Absent_When_String_Value_Equals_Sentinel(t *testing.T) {
	t.Parallel()

	token, err := danktable.EncodeCell(danktable.String(danktable.AbsentMarker))
	if err != nil {
		t.Fatal(err)
	}

	got := danktable.DecodeCell(token)
	if !got.IsAbsent() {
		t.Fatalf("got %#v, want absent", got)
	}
}

func Test_DecodeCell_Returns_Unreadable_When_Token_Is_Not_Base64(t *testing.T) {
	t.Parallel()

	got := danktable.DecodeCell("!!! not base64 !!!")
	if !got.IsUnreadable() {
		t.Fatalf("got %#v, want unreadable", got)
	}
}

func Test_DecodeCell_Returns_Unreadable_When_Wrapped_Text_Is_Not_JSON(t *testing.T) {
	t.Parallel()

	// "bm90IGpzb24" is base64 for "not json".
	got := danktable.DecodeCell("bm90IGpzb24=")
	if !got.IsUnreadable() {
		t.Fatalf("got %#v, want unreadable", got)
	}
}

func Test_EncodeCell_Preserves_Raw_Token_When_Cell_Is_Unreadable(t *testing.T) {
	t.Parallel()

	const corrupt = "!!! corrupt !!!"

	v := danktable.DecodeCell(corrupt)
	if !v.IsUnreadable() {
		t.Fatalf("got %#v, want unreadable", v)
	}

	token, err := danktable.EncodeCell(v)
	if err != nil {
		t.Fatal(err)
	}

	if token != corrupt {
		t.Fatalf("token = %q, want original %q", token, corrupt)
	}
}
