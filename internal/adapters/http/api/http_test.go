package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/audiogram/internal/adapters/http/api"
	"github.com/okian/audiogram/internal/adapters/source"
	service "github.com/okian/audiogram/internal/app"
	"github.com/okian/audiogram/internal/domain/model"
	"github.com/okian/audiogram/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

type stubLoader struct {
	records []model.RawRecord
	err     error
}

func (l *stubLoader) Load(context.Context) ([]model.RawRecord, source.Stats, error) {
	return l.records, source.Stats{Layout: source.Positional, Rows: len(l.records)}, l.err
}

func (l *stubLoader) Location() string { return "stub://dataset" }

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

// analysisBody is the subset of the analysis response the tests inspect.
type analysisBody struct {
	ID     string `json:"analysis_id"`
	Kind   string `json:"kind"`
	Result struct {
		ParticipantID int64              `json:"participant_id"`
		Loss          map[string]string  `json:"loss"`
		PresentCount  map[string]int     `json:"present_count"`
		Average       map[string]float64 `json:"average"`
		Custom        bool               `json:"custom"`
		Bone          json.RawMessage    `json:"bone_conduction"`
	} `json:"result"`
	Chart struct {
		Mode   string `json:"mode"`
		Charts []struct {
			FileName string `json:"file_name"`
		} `json:"charts"`
	} `json:"chart"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func participant(id int64, re, le string) model.RawRecord {
	rec := model.NewRawRecord(id)
	right := []string{"AUXU500R", "AUXU1K1R", "AUXU2KR", "AUXU3KR", "AUXU4KR", "AUXU6KR", "AUXU8KR"}
	left := []string{"AUXU500L", "AUXU1K1L", "AUXU2KL", "AUXU3KL", "AUXU4KL", "AUXU6KL", "AUXU8KL"}
	for i, v := range model.ParseRow(re) {
		rec.Set(right[i], model.Text(v))
	}
	for i, v := range model.ParseRow(le) {
		rec.Set(left[i], model.Text(v))
	}
	return rec
}

func newMux(loader *stubLoader, opts ...api.Option) *http.ServeMux {
	svc := service.New(service.WithLoader(loader), service.WithIDGenerator(func() int64 { return 12345 }))
	_ = svc.Start(context.Background())
	mux := http.NewServeMux()
	api.NewServer(svc, svc, opts...).Register(context.Background(), mux)
	return mux
}

func loadedMux(opts ...api.Option) *http.ServeMux {
	return newMux(&stubLoader{records: []model.RawRecord{
		participant(93705, "20,22,18,25,19,21,20", "30,35,40,45,50,55,60"),
		participant(93706, "95,95,95,95,95,95,95", ""),
	}}, opts...)
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := loadedMux()

		Convey("Then the health endpoint should be accessible", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "audiogram_service_dataset_records")
		})

		Convey("Then the metrics endpoint should expose the registry", func() {
			_ = do(mux, http.MethodGet, "/api/participants/first", "")
			w := do(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "audiogram_service_http_requests_total")
		})

		Convey("Then the dashboard should be served", func() {
			w := do(mux, http.MethodGet, "/dashboard", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "Audiogram Service")
		})

		Convey("Then the stats endpoint should be accessible", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["records"], ShouldEqual, float64(2))
		})
	})
}

func TestStatsHandler(t *testing.T) {
	Convey("Given a stats handler with a mock provider", t, func() {
		h := api.NewStatsHandler(&mockStatsProvider{stats: map[string]interface{}{"records": 7}})

		Convey("When GET /stats is requested", func() {
			w := httptest.NewRecorder()
			h.HandleStats(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

			Convey("Then the provider's stats are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"records":7`)
			})
		})

		Convey("When another method is used", func() {
			w := httptest.NewRecorder()
			h.HandleStats(w, httptest.NewRequest(http.MethodPost, "/stats", nil))

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestParticipantHandler(t *testing.T) {
	Convey("Given a server with a loaded dataset", t, func() {
		mux := loadedMux()

		Convey("When the first participant is requested", func() {
			w := do(mux, http.MethodGet, "/api/participants/first", "")

			Convey("Then it is analyzed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body analysisBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.ID, ShouldNotBeEmpty)
				So(body.Kind, ShouldEqual, "dataset")
				So(body.Result.ParticipantID, ShouldEqual, int64(93705))
				So(body.Result.Loss["RE"], ShouldEqual, "Normal")
				So(body.Result.Loss["LE"], ShouldEqual, "Moderada")
				So(body.Chart.Mode, ShouldEqual, "combined")
			})
		})

		Convey("When a participant is requested by id", func() {
			w := do(mux, http.MethodGet, "/api/participants/93706", "")

			Convey("Then the matching record is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body analysisBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Result.Loss["RE"], ShouldEqual, "Muy Profunda")
				So(body.Result.PresentCount["LE"], ShouldEqual, 0)
				So(body.Result.Average["LE"], ShouldEqual, 0.0)
			})
		})

		Convey("When a random participant is requested", func() {
			w := do(mux, http.MethodGet, "/api/participants/random", "")

			Convey("Then one of the loaded records is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body analysisBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Result.ParticipantID, ShouldBeIn, []int64{93705, 93706})
			})
		})

		Convey("When a participant is requested by index", func() {
			w := do(mux, http.MethodGet, "/api/participants?index=1", "")
			out := do(mux, http.MethodGet, "/api/participants?index=2", "")
			bad := do(mux, http.MethodGet, "/api/participants?index=-1", "")

			Convey("Then positions follow load order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body analysisBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Result.ParticipantID, ShouldEqual, int64(93706))
				So(out.Code, ShouldEqual, http.StatusBadRequest)
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When an unknown id is requested", func() {
			w := do(mux, http.MethodGet, "/api/participants/1", "")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				var body errorBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Code, ShouldEqual, "not_found")
			})
		})

		Convey("When the id is not a number", func() {
			w := do(mux, http.MethodGet, "/api/participants/abc", "")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a participant route is called with POST", func() {
			w := do(mux, http.MethodPost, "/api/participants/first", "{}")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})

	Convey("Given a server whose dataset failed to load", t, func() {
		mux := newMux(&stubLoader{err: source.ErrSourceUnavailable})

		Convey("When participants or the summary are requested", func() {
			first := do(mux, http.MethodGet, "/api/participants/first", "")
			random := do(mux, http.MethodGet, "/api/participants/random", "")
			summary := do(mux, http.MethodGet, "/api/summary", "")

			Convey("Then the dataset is reported unavailable", func() {
				So(first.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(random.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(summary.Code, ShouldEqual, http.StatusServiceUnavailable)
				var body errorBody
				So(json.Unmarshal(first.Body.Bytes(), &body), ShouldBeNil)
				So(body.Code, ShouldEqual, "dataset_unavailable")
			})
		})

		Convey("When the dataset status is requested", func() {
			w := do(mux, http.MethodGet, "/api/dataset", "")

			Convey("Then the load error is visible", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"loaded":false`)
				So(w.Body.String(), ShouldContainSubstring, "last_error")
			})
		})
	})
}

func TestAudiogramHandler(t *testing.T) {
	Convey("Given a server without a dataset", t, func() {
		mux := newMux(&stubLoader{err: source.ErrNoRecords}, api.WithMaxBodyBytes(512))

		Convey("When an air-only audiogram is posted", func() {
			w := do(mux, http.MethodPost, "/api/audiograms",
				`{"participant_id":"77","air":{"re":[20,"25",null,"",30],"le":["50","50","50","50","50","50","50"]}}`)

			Convey("Then it is analyzed as a custom audiogram", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body analysisBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Kind, ShouldEqual, "manual")
				So(body.Result.Custom, ShouldBeTrue)
				So(body.Result.ParticipantID, ShouldEqual, int64(77))
				So(body.Result.PresentCount["RE"], ShouldEqual, 3)
				So(body.Result.Average["RE"], ShouldEqual, 25.0)
				So(body.Result.Loss["LE"], ShouldEqual, "Moderada")
				So(body.Chart.Mode, ShouldEqual, "combined")
			})
		})

		Convey("When an audiogram with bone conduction and no id is posted", func() {
			w := do(mux, http.MethodPost, "/api/audiograms",
				`{"air":{"re":[30],"le":[40]},"bone":{"re":[10],"le":[20]}}`)

			Convey("Then a placeholder id and dual charts are used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body analysisBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Result.ParticipantID, ShouldEqual, int64(12345))
				So(body.Chart.Mode, ShouldEqual, "dual")
				So(body.Chart.Charts, ShouldHaveLength, 2)
				So(body.Chart.Charts[0].FileName, ShouldEqual, "audiograma_participante_12345_OD.png")
			})
		})

		Convey("When bone values are posted with air_only set", func() {
			w := do(mux, http.MethodPost, "/api/audiograms",
				`{"air":{"re":[30]},"bone":{"re":[10]},"air_only":true}`)

			Convey("Then the bone values are ignored", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body analysisBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Chart.Mode, ShouldEqual, "combined")
				So(body.Result.Bone, ShouldBeEmpty)
			})
		})

		Convey("When a row has more than seven values", func() {
			w := do(mux, http.MethodPost, "/api/audiograms", `{"air":{"re":[1,2,3,4,5,6,7,8]}}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the body is not valid JSON", func() {
			w := do(mux, http.MethodPost, "/api/audiograms", `{"air":`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the participant id is not a non-negative integer", func() {
			for _, raw := range []string{`"x1"`, `12.5`, `-5`, `""`, `null`} {
				w := do(mux, http.MethodPost, "/api/audiograms", `{"participant_id":`+raw+`,"air":{"re":[20]}}`)

				So(w.Code, ShouldEqual, http.StatusOK)
				var body analysisBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Result.ParticipantID, ShouldEqual, int64(12345))
				So(body.Result.Custom, ShouldBeTrue)
			}
		})

		Convey("When the participant id has surrounding blanks", func() {
			w := do(mux, http.MethodPost, "/api/audiograms", `{"participant_id":" 42 ","air":{"re":[20]}}`)

			Convey("Then the trimmed id is kept", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body analysisBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Result.ParticipantID, ShouldEqual, int64(42))
			})
		})

		Convey("When the body exceeds the limit", func() {
			w := do(mux, http.MethodPost, "/api/audiograms", `{"air":{"re":["`+strings.Repeat("1", 1024)+`"]}}`)

			Convey("Then it is rejected as too large", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			})
		})

		Convey("When the route is called with GET", func() {
			w := do(mux, http.MethodGet, "/api/audiograms", "")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestReportHandler(t *testing.T) {
	Convey("Given a server with a loaded dataset", t, func() {
		mux := loadedMux()

		Convey("When the summary is requested", func() {
			w := do(mux, http.MethodGet, "/api/summary", "")

			Convey("Then cohort counts are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Participants int                       `json:"participants"`
					Counts       map[string]map[string]int `json:"counts"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Participants, ShouldEqual, 2)
				So(body.Counts["RE"]["Normal"], ShouldEqual, 1)
				So(body.Counts["RE"]["Muy Profunda"], ShouldEqual, 1)
			})
		})

		Convey("When the classification table is requested", func() {
			w := do(mux, http.MethodGet, "/api/classification", "")

			Convey("Then all six bands are listed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Bands []struct {
						Category string `json:"category"`
					} `json:"bands"`
					NoData string `json:"no_data"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Bands, ShouldHaveLength, 6)
				So(body.Bands[0].Category, ShouldEqual, "Normal")
				So(body.NoData, ShouldEqual, "Sin datos")
			})
		})

		Convey("When the dataset status is requested", func() {
			w := do(mux, http.MethodGet, "/api/dataset", "")

			Convey("Then it reports the loaded records", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Loaded   bool      `json:"loaded"`
					Records  int       `json:"records"`
					Location string    `json:"location"`
					LoadedAt time.Time `json:"loaded_at"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Loaded, ShouldBeTrue)
				So(body.Records, ShouldEqual, 2)
				So(body.Location, ShouldEqual, "stub://dataset")
				So(body.LoadedAt.IsZero(), ShouldBeFalse)
			})
		})
	})
}
