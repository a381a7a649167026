package source_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/audiogram/internal/adapters/source"
	. "github.com/smartystreets/goconvey/convey"
)

// positionalRow builds a 54-column row with the identifier at column 1 and the
// given right and left ear values at the built-in table positions.
func positionalRow(id string, re, le map[int]string) string {
	cols := make([]string, 54)
	cols[0] = "1"
	cols[1] = id
	for c, v := range re {
		cols[c] = v
	}
	for c, v := range le {
		cols[c] = v
	}
	return strings.Join(cols, ",")
}

func positionalPage(rows ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><pre>\n")
	b.WriteString("SEQN,AUAEXSTS,AUAEXCMT\n")
	for _, r := range rows {
		b.WriteString(r)
		b.WriteString("\n")
	}
	b.WriteString("<hr>\n</pre></body></html>\n")
	return b.String()
}

func TestParsePositional(t *testing.T) {
	Convey("Given a positional dataset page", t, func() {
		page := positionalPage(
			positionalRow("93705", map[int]string{39: "15", 38: "10", 45: "30"}, map[int]string{47: "20"}),
			positionalRow("93706", nil, map[int]string{53: "0"}),
			positionalRow("abc", map[int]string{39: "15"}, nil),
			positionalRow("93707", map[int]string{39: "150", 40: "20", 48: "20"}, nil),
			positionalRow("93705", map[int]string{39: "99"}, nil),
			"1,93708,2,3",
		)

		Convey("When it is parsed", func() {
			records, stats, err := source.Parse(strings.NewReader(page), nil)

			Convey("Then valid rows become records in order", func() {
				So(err, ShouldBeNil)
				So(stats.Layout, ShouldEqual, source.Positional)
				So(len(records), ShouldEqual, 2)
				So(records[0].ID, ShouldEqual, int64(93705))
				So(records[1].ID, ShouldEqual, int64(93706))
			})

			Convey("Then fields are read at their positions", func() {
				v, _ := records[0].Field("AUXU500R").AsText()
				So(v, ShouldEqual, "15")
				v, _ = records[0].Field("AUXU1K1R").AsText()
				So(v, ShouldEqual, "10")
				v, _ = records[0].Field("AUXU8KR").AsText()
				So(v, ShouldEqual, "30")
				v, _ = records[0].Field("AUXU500L").AsText()
				So(v, ShouldEqual, "20")
			})

			Convey("Then a zero threshold keeps the row", func() {
				v, _ := records[1].Field("AUXU8KL").AsText()
				So(v, ShouldEqual, "0")
			})

			Convey("Then rejected rows are counted by reason", func() {
				So(stats.Rows, ShouldEqual, 6)
				So(stats.Accepted, ShouldEqual, 2)
				So(stats.Rejected[source.ReasonInvalidID], ShouldEqual, 1)
				So(stats.Rejected[source.ReasonNoThresholds], ShouldEqual, 1)
				So(stats.Rejected[source.ReasonDuplicate], ShouldEqual, 1)
				So(stats.Rejected[source.ReasonShortRow], ShouldEqual, 1)
				So(stats.RejectedTotal(), ShouldEqual, 4)
			})

			Convey("Then the first of two duplicate rows wins", func() {
				v, _ := records[0].Field("AUXU500R").AsText()
				So(v, ShouldNotEqual, "99")
			})
		})
	})

	Convey("Given a page whose rows are all unusable", t, func() {
		page := positionalPage(positionalRow("1", nil, nil))

		Convey("Then parsing reports no records", func() {
			_, _, err := source.Parse(strings.NewReader(page), nil)
			So(errors.Is(err, source.ErrNoRecords), ShouldBeTrue)
		})
	})
}

func TestParseHeaderCSV(t *testing.T) {
	Convey("Given a CSV file with a header row", t, func() {
		csv := "SEQN,AUXU500R,AUXU1K1R,AUXU500L,NOTE,BCU500R\n" +
			"10,20,25,30,x,15\n" +
			"11,,,,y,\n" +
			"12, 40 ,,,z,\n" +
			"\"13,bad\n"

		Convey("When it is parsed", func() {
			records, stats, err := source.Parse(strings.NewReader(csv), nil)

			Convey("Then columns are matched by identifier", func() {
				So(err, ShouldBeNil)
				So(stats.Layout, ShouldEqual, source.HeaderCSV)
				So(len(records), ShouldEqual, 2)
				v, _ := records[0].Field("AUXU1K1R").AsText()
				So(v, ShouldEqual, "25")
				So(records[0].Field("NOTE").IsMissing(), ShouldBeTrue)
				So(records[0].Field("AUXU2KR").IsMissing(), ShouldBeTrue)
			})

			Convey("Then bone conduction columns are carried", func() {
				v, _ := records[0].Field("BCU500R").AsText()
				So(v, ShouldEqual, "15")
			})

			Convey("Then empty and malformed rows are rejected", func() {
				So(stats.Rejected[source.ReasonNoThresholds], ShouldEqual, 1)
				So(stats.Rejected[source.ReasonMalformed], ShouldEqual, 1)
			})
		})
	})

	Convey("Given text with neither marker nor identifier header", t, func() {
		_, _, err := source.Parse(strings.NewReader("a,b,c\n1,2,3\n"), nil)

		Convey("Then the layout is rejected", func() {
			So(errors.Is(err, source.ErrUnknownLayout), ShouldBeTrue)
		})
	})
}

func TestParseIdentifier(t *testing.T) {
	Convey("Given identifier text", t, func() {
		cases := []struct {
			in   string
			id   int64
			want bool
		}{
			{"93705", 93705, true},
			{" 93705 ", 93705, true},
			{"93705.0", 93705, true},
			{"0", 0, true},
			{"93705.5", 0, false},
			{"-1", 0, false},
			{"9223372036854775807", 9223372036854775807, true},
			{"9223372036854775808", 0, false},
			{"9.3e18", 0, false},
			{"", 0, false},
			{"SEQN", 0, false},
		}

		Convey("Then only non-negative integers are accepted", func() {
			for _, c := range cases {
				id, ok := source.ParseIdentifier(c.in)
				So(ok, ShouldEqual, c.want)
				if ok {
					So(id, ShouldEqual, c.id)
				}
			}
		})
	})
}

func TestLoader(t *testing.T) {
	ctx := context.Background()
	page := positionalPage(positionalRow("93705", map[int]string{39: "15"}, nil))

	Convey("Given a dataset file on disk", t, func() {
		path := filepath.Join(t.TempDir(), "audiometry.html")
		So(os.WriteFile(path, []byte(page), 0o600), ShouldBeNil)

		Convey("When it is loaded", func() {
			records, stats, err := source.NewLoader(path).Load(ctx)

			Convey("Then records are returned", func() {
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 1)
				So(stats.Version, ShouldEqual, "nhanes-2015-2016")
			})
		})

		Convey("When the path does not exist", func() {
			_, _, err := source.NewLoader(path + ".missing").Load(ctx)

			Convey("Then the source is unavailable", func() {
				So(errors.Is(err, source.ErrSourceUnavailable), ShouldBeTrue)
			})
		})
	})

	Convey("Given a dataset served over HTTP", t, func() {
		var status int
		var delay time.Duration
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-r.Context().Done():
					return
				}
			}
			w.WriteHeader(status)
			_, _ = w.Write([]byte(page))
		}))
		defer srv.Close()

		Convey("When the server answers 200", func() {
			status = http.StatusOK
			l := source.NewLoader(srv.URL)
			records, _, err := l.Load(ctx)

			Convey("Then records are returned", func() {
				So(l.IsRemote(), ShouldBeTrue)
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 1)
			})
		})

		Convey("When the server answers 503", func() {
			status = http.StatusServiceUnavailable
			_, _, err := source.NewLoader(srv.URL).Load(ctx)

			Convey("Then the source is unavailable", func() {
				So(errors.Is(err, source.ErrSourceUnavailable), ShouldBeTrue)
			})
		})

		Convey("When the server is slower than the timeout", func() {
			status = http.StatusOK
			delay = 500 * time.Millisecond
			_, _, err := source.NewLoader(srv.URL, source.WithTimeout(20*time.Millisecond)).Load(ctx)

			Convey("Then the source is unavailable", func() {
				So(errors.Is(err, source.ErrSourceUnavailable), ShouldBeTrue)
			})
		})
	})
}
