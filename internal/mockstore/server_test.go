package mockstore

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type ServerTestSuite struct {
	suite.Suite
	store  *Store
	server *httptest.Server
}

func (s *ServerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := OpenStore(logger, StoreConfig{})
	s.Require().NoError(err)
	s.store = store

	s.server = httptest.NewServer(NewServer(logger, store, Config{
		APIKey:   "keyTest",
		PageSize: 2,
	}).Handler())
}

func (s *ServerTestSuite) TearDownTest() {
	s.server.Close()
	s.NoError(s.store.Close())
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) do(method, path, body string) (int, map[string]json.RawMessage) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer keyTest")

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var out map[string]json.RawMessage
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (s *ServerTestSuite) create(fields string) string {
	status, out := s.do(http.MethodPost, "/v0/appTest/Words", `{"fields":`+fields+`}`)
	s.Require().Equal(http.StatusOK, status)
	var id string
	s.Require().NoError(json.Unmarshal(out["id"], &id))
	return id
}

func (s *ServerTestSuite) listIDs(query string) ([]string, string) {
	status, out := s.do(http.MethodGet, "/v0/appTest/Words?"+query, "")
	s.Require().Equal(http.StatusOK, status)

	var records []recordJSON
	s.Require().NoError(json.Unmarshal(out["records"], &records))

	var offset string
	if raw, ok := out["offset"]; ok {
		s.Require().NoError(json.Unmarshal(raw, &offset))
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids, offset
}

func (s *ServerTestSuite) TestCreateGetUpdateDelete() {
	id := s.create(`{"Word":"lurid","Google":6870000}`)
	s.True(strings.HasPrefix(id, "rec"))

	status, out := s.do(http.MethodGet, "/v0/appTest/Words/"+id, "")
	s.Equal(http.StatusOK, status)
	s.JSONEq(`{"Word":"lurid","Google":6870000}`, string(out["fields"]))
	s.Contains(out, "createdTime")

	status, out = s.do(http.MethodPatch, "/v0/appTest/Words/"+id, `{"fields":{"Next":true,"Google":null}}`)
	s.Equal(http.StatusOK, status)
	s.JSONEq(`{"Word":"lurid","Next":true}`, string(out["fields"]))

	status, out = s.do(http.MethodDelete, "/v0/appTest/Words/"+id, "")
	s.Equal(http.StatusOK, status)
	s.JSONEq(`true`, string(out["deleted"]))

	status, out = s.do(http.MethodDelete, "/v0/appTest/Words/"+id, "")
	s.Equal(http.StatusNotFound, status)
	s.JSONEq(`"NOT_FOUND"`, string(out["error"]))

	status, _ = s.do(http.MethodGet, "/v0/appTest/Words/"+id, "")
	s.Equal(http.StatusNotFound, status)
}

func (s *ServerTestSuite) TestAuthentication() {
	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/v0/appTest/Words", nil)
	s.Require().NoError(err)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *ServerTestSuite) TestPagination() {
	var want []string
	for i := 0; i < 5; i++ {
		want = append(want, s.create(`{"Google":1}`))
	}

	var got []string
	ids, offset := s.listIDs("")
	got = append(got, ids...)
	pages := 1
	for offset != "" {
		ids, offset = s.listIDs("offset=" + url.QueryEscape(offset))
		got = append(got, ids...)
		pages++
	}

	s.Equal(want, got)
	s.Equal(3, pages)
}

func (s *ServerTestSuite) TestOffsetBelongsToQuery() {
	for i := 0; i < 3; i++ {
		s.create(`{"Google":1}`)
	}

	_, offset := s.listIDs("sort%5B0%5D%5Bfield%5D=Google")
	s.Require().NotEmpty(offset)

	status, out := s.do(http.MethodGet, "/v0/appTest/Words?offset="+url.QueryEscape(offset), "")
	s.Equal(http.StatusUnprocessableEntity, status)
	s.Contains(string(out["error"]), "LIST_RECORDS_ITERATOR_NOT_AVAILABLE")
}

func (s *ServerTestSuite) TestSortAndFilter() {
	a := s.create(`{"Word":"a","Google":3,"Next":true}`)
	b := s.create(`{"Word":"b","Google":9,"Next":false}`)
	c := s.create(`{"Word":"c","Google":5,"Next":true}`)

	q := url.Values{}
	q.Set("sort[0][field]", "Next")
	q.Set("sort[0][direction]", "desc")
	q.Set("sort[1][field]", "Google")
	q.Set("sort[1][direction]", "desc")
	q.Set("pageSize", "10")
	ids, offset := s.listIDs(q.Encode())
	s.Equal([]string{c, a}, ids)
	s.NotEmpty(offset)

	ids, _ = s.listIDs(url.Values{"filterByFormula": {"{Word} = 'b'"}}.Encode())
	s.Equal([]string{b}, ids)

	ids, _ = s.listIDs(url.Values{"filterByFormula": {"{Next} = TRUE()"}, "maxRecords": {"1"}}.Encode())
	s.Equal([]string{a}, ids)
}

func (s *ServerTestSuite) TestInvalidFormula() {
	status, out := s.do(http.MethodGet, "/v0/appTest/Words?"+url.Values{"filterByFormula": {"FIND("}}.Encode(), "")
	s.Equal(http.StatusUnprocessableEntity, status)
	s.Contains(string(out["error"]), "INVALID_FILTER_BY_FORMULA")
}

func (s *ServerTestSuite) TestCreateRequiresFields() {
	status, out := s.do(http.MethodPost, "/v0/appTest/Words", `{"Word":"x"}`)
	s.Equal(http.StatusUnprocessableEntity, status)
	s.Contains(string(out["error"]), "INVALID_REQUEST_MISSING_FIELDS")
}

func (s *ServerTestSuite) TestTablesAreSeparate() {
	s.create(`{"Word":"a"}`)

	status, out := s.do(http.MethodGet, "/v0/appTest/Other", "")
	s.Equal(http.StatusOK, status)
	s.JSONEq(`[]`, string(out["records"]))
}
