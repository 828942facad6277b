package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/handbook/internal/model"
	"github.com/stretchr/testify/assert"
)

func testContext(method, target string, body []byte) *gin.Context {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

func TestBindQuery(t *testing.T) {
	Setup()

	var q model.UnitQuery
	fields := BindQuery(testContext(http.MethodGet, "/units?major=CS&category=core&name=int", nil), &q)
	assert.Nil(t, fields)
	assert.Equal(t, model.UnitQuery{Major: "CS", Category: "core", Name: "int"}, q)

	fields = BindQuery(testContext(http.MethodGet, "/units?category=minor", nil), &model.UnitQuery{})
	assert.Contains(t, fields, "category")
}

func TestBind(t *testing.T) {
	Setup()

	var req model.SnapshotRequest
	fields := Bind(testContext(http.MethodPost, "/snapshots", []byte(`{"majors":[{"title":"CS","units":["A"]}],"cores":["B"]}`)), &req)
	assert.Nil(t, fields)
	assert.Equal(t, "CS", req.Majors[0].Title)

	fields = Bind(testContext(http.MethodPost, "/snapshots", []byte(`{"majors":[{"title":"","units":["A"]}]}`)), &model.SnapshotRequest{})
	assert.Contains(t, fields, "majors[0].title")

	fields = Bind(testContext(http.MethodPost, "/snapshots", []byte(`{"cores":["A", ""]}`)), &model.SnapshotRequest{})
	assert.Contains(t, fields, "cores[1]")

	fields = Bind(testContext(http.MethodPost, "/snapshots", []byte(`{not json`)), &model.SnapshotRequest{})
	assert.Contains(t, fields, "detail")
}
