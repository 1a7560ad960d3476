package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-roster/internal/dto"
	"github.com/noah-isme/tuition-roster/internal/models"
	appErrors "github.com/noah-isme/tuition-roster/pkg/errors"
)

type fakeLookupService struct {
	schools  []models.School
	classes  []models.Class
	subjects []models.Subject
	err      error
	created  []dto.CreateLookupRequest
}

func (f *fakeLookupService) Schools(context.Context) ([]models.School, error) {
	return f.schools, f.err
}

func (f *fakeLookupService) Classes(context.Context) ([]models.Class, error) {
	return f.classes, f.err
}

func (f *fakeLookupService) Subjects(context.Context) ([]models.Subject, error) {
	return f.subjects, f.err
}

func (f *fakeLookupService) CreateClass(_ context.Context, req dto.CreateLookupRequest) (*models.Class, error) {
	if req.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	f.created = append(f.created, req)
	return &models.Class{ID: "c-new", Name: req.Name}, nil
}

func (f *fakeLookupService) CreateSubject(_ context.Context, req dto.CreateLookupRequest) (*models.Subject, error) {
	if f.err != nil {
		return nil, appErrors.MutationFailed("create subject", f.err)
	}
	f.created = append(f.created, req)
	return &models.Subject{ID: "s-new", Name: req.Name}, nil
}

func TestLookupHandlerListsWithTotals(t *testing.T) {
	svc := &fakeLookupService{classes: []models.Class{{ID: "c1", Name: "Grade 9"}, {ID: "c2", Name: "Grade 10"}}}
	handler := NewLookupHandler(svc)

	c, rec := newTestContext(http.MethodGet, "/classes", nil)
	handler.Classes(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data []models.Class         `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Len(t, env.Data, 2)
	assert.EqualValues(t, 2, env.Meta["total"])
}

func TestLookupHandlerEmptyListIsArray(t *testing.T) {
	handler := NewLookupHandler(&fakeLookupService{})

	c, rec := newTestContext(http.MethodGet, "/schools", nil)
	handler.Schools(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestLookupHandlerListFailure(t *testing.T) {
	handler := NewLookupHandler(&fakeLookupService{err: appErrors.FetchFailed(errors.New("down"))})

	c, rec := newTestContext(http.MethodGet, "/subjects", nil)
	handler.Subjects(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestLookupHandlerCreateClass(t *testing.T) {
	svc := &fakeLookupService{}
	handler := NewLookupHandler(svc)

	c, rec := newTestContext(http.MethodPost, "/classes", dto.CreateLookupRequest{Name: "Grade 11"})
	handler.CreateClass(c)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.created, 1)

	c, rec = newTestContext(http.MethodPost, "/classes", dto.CreateLookupRequest{})
	handler.CreateClass(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLookupHandlerCreateSubjectFailure(t *testing.T) {
	handler := NewLookupHandler(&fakeLookupService{err: errors.New("unique violation")})

	c, rec := newTestContext(http.MethodPost, "/subjects", dto.CreateLookupRequest{Name: "Physics"})
	handler.CreateSubject(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"operation":"create subject"`)
}
