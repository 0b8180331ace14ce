package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ktp/internal/applicant/handler/mocks"
	"ktp/internal/applicant/models"
	dErrors "ktp/pkg/domain-errors"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func (s *HandlerSuite) decodeError(rec *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var sample = models.ApplicantRecord{
	ID:             "NY-1716199200000",
	Name:           "Siti",
	Address:        "1 Old Rd",
	Region:         "NY",
	Status:         models.StatusPending,
	SubmissionTime: time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC),
}

func (s *HandlerSuite) TestSubmit() {
	s.Run("created with trimmed input", func() {
		s.service.EXPECT().
			Submit(gomock.Any(), models.SubmitInput{Name: "Siti", Address: "1 Old Rd", Region: "NY"}).
			Return(&sample, nil)

		rec := s.do(http.MethodPost, "/applications", `{"name":"  Siti ","address":"1 Old Rd","region":"NY"}`)
		s.Equal(http.StatusCreated, rec.Code)
		s.Equal("/applications/"+sample.ID, rec.Header().Get("Location"))

		var got ApplicantResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
		s.Equal(sample.ID, got.ID)
		s.Equal("pending", got.Status)
	})

	s.Run("missing field never reaches the service", func() {
		rec := s.do(http.MethodPost, "/applications", `{"name":"Siti","region":"NY"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal(string(dErrors.CodeValidation), s.decodeError(rec)["error"])
	})

	s.Run("malformed json", func() {
		rec := s.do(http.MethodPost, "/applications", `{"name":`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal(string(dErrors.CodeBadRequest), s.decodeError(rec)["error"])
	})

	s.Run("persistence failure is 503", func() {
		s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodePersistence, "failed to persist applicants"))

		rec := s.do(http.MethodPost, "/applications", `{"name":"Siti","address":"1 Old Rd","region":"NY"}`)
		s.Equal(http.StatusServiceUnavailable, rec.Code)
		s.Equal(string(dErrors.CodePersistence), s.decodeError(rec)["error"])
	})
}

func (s *HandlerSuite) TestEdit() {
	s.Run("passes only supplied fields", func() {
		s.service.EXPECT().
			Edit(gomock.Any(), sample.ID, gomock.Cond(func(f models.Fields) bool {
				return f.Name == nil && f.Region == nil && f.Address != nil && *f.Address == "123 Main"
			})).
			Return(&sample, nil)

		rec := s.do(http.MethodPut, "/applications/"+sample.ID, `{"address":"123 Main"}`)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("empty body is a validation error", func() {
		rec := s.do(http.MethodPut, "/applications/"+sample.ID, `{}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("blank field is a validation error", func() {
		rec := s.do(http.MethodPut, "/applications/"+sample.ID, `{"name":"   "}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("several blank fields report the first one", func() {
		for i := 0; i < 10; i++ {
			rec := s.do(http.MethodPut, "/applications/"+sample.ID, `{"region":"","address":" ","name":""}`)
			s.Equal(http.StatusBadRequest, rec.Code)
			s.Equal("name is required", s.decodeError(rec)["error_description"])
		}
	})

	s.Run("unknown id", func() {
		s.service.EXPECT().Edit(gomock.Any(), "XX-1", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "applicant not found"))

		rec := s.do(http.MethodPut, "/applications/XX-1", `{"name":"x"}`)
		s.Equal(http.StatusNotFound, rec.Code)
		s.Equal("applicant not found", s.decodeError(rec)["error_description"])
	})
}

func (s *HandlerSuite) TestUndoAndVerify() {
	s.service.EXPECT().Undo(gomock.Any(), sample.ID).
		Return(nil, dErrors.New(dErrors.CodeNothingToUndo, "nothing to undo"))
	rec := s.do(http.MethodPost, "/applications/"+sample.ID+"/undo", "")
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal(string(dErrors.CodeNothingToUndo), s.decodeError(rec)["error"])

	s.service.EXPECT().Verify(gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeQueueEmpty, "nothing to verify"))
	rec = s.do(http.MethodPost, "/verifications", "")
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal(string(dErrors.CodeQueueEmpty), s.decodeError(rec)["error"])

	verified := sample
	verified.Status = models.StatusVerified
	s.service.EXPECT().Verify(gomock.Any()).Return(&verified, nil)
	rec = s.do(http.MethodPost, "/verifications", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"status":"verified"`)
}

func (s *HandlerSuite) TestListAndQueue() {
	s.Run("sort key parsed", func() {
		s.service.EXPECT().List(gomock.Any(), models.SortByRegion).Return([]models.ApplicantRecord{sample})

		rec := s.do(http.MethodGet, "/applications?sort=region", "")
		s.Equal(http.StatusOK, rec.Code)

		var got ListResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
		s.Equal(1, got.Count)
	})

	s.Run("unknown sort key", func() {
		rec := s.do(http.MethodGet, "/applications?sort=name", "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("empty queue renders an empty array", func() {
		s.service.EXPECT().Queue(gomock.Any()).Return(nil)

		rec := s.do(http.MethodGet, "/verifications", "")
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"applicants":[],"count":0}`, rec.Body.String())
	})

	s.Run("internal errors hide their description", func() {
		s.service.EXPECT().Get(gomock.Any(), sample.ID).Return(nil, io.ErrUnexpectedEOF)

		rec := s.do(http.MethodGet, "/applications/"+sample.ID, "")
		s.Equal(http.StatusInternalServerError, rec.Code)
		s.JSONEq(`{"error":"internal_error"}`, rec.Body.String())
	})
}
