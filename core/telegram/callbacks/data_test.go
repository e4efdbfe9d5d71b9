package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParse(t *testing.T) {
	cases := []struct {
		cb          *tele.Callback
		key, payload string
	}{
		{nil, "", ""},
		{&tele.Callback{Data: "\fcategory|hd"}, "category", "hd"},
		{&tele.Callback{Data: "\fget_started"}, "get_started", ""},
		{&tele.Callback{Unique: "category", Data: "anime"}, "category", "anime"},
		{&tele.Callback{Data: "\fcategory|a|b"}, "category", "a|b"},
	}
	for _, tc := range cases {
		key, payload := Parse(tc.cb)
		if key != tc.key || payload != tc.payload {
			t.Fatalf("Parse(%+v) = %q, %q; want %q, %q", tc.cb, key, payload, tc.key, tc.payload)
		}
	}
}
