package handler_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/appraisal-go-api/internal/dto"
	"github.com/noah-isme/appraisal-go-api/internal/handler"
	"github.com/noah-isme/appraisal-go-api/internal/workflow"
)

func newWorkflowApp() *fiber.App {
	app := fiber.New()
	handler.NewWorkflowHandler(validator.New(), zerolog.Nop()).Register(app.Group("/api/v1/workflow"))
	return app
}

func postCheck(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflow/check", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestWorkflowHandler_CheckAllowsTableEdges(t *testing.T) {
	app := newWorkflowApp()

	resp := postCheck(t, app, `{"current":"hod_approved","requested":"REVIEWED_BY_PRINCIPAL"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data dto.WorkflowCheckResponse `json:"data"`
	}
	decodeResponse(t, resp, &payload)
	require.Equal(t, workflow.StateHODApproved, payload.Data.Current)
	require.Equal(t, workflow.StateReviewedByPrincipal, payload.Data.Next)
}

func TestWorkflowHandler_CheckRejectsInvalidEdges(t *testing.T) {
	app := newWorkflowApp()

	resp := postCheck(t, app, `{"current":"FINALIZED","requested":"DRAFT"}`)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = postCheck(t, app, `{"current":"ARCHIVED","requested":"DRAFT"}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = postCheck(t, app, `{"current":"DRAFT"}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = postCheck(t, app, `not json`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestWorkflowHandler_StatesListsEveryState(t *testing.T) {
	app := newWorkflowApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/workflow/states", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data []dto.WorkflowStateResponse `json:"data"`
	}
	decodeResponse(t, resp, &payload)
	require.Len(t, payload.Data, len(workflow.States()))

	for _, state := range payload.Data {
		if state.State == workflow.StateFinalized {
			require.True(t, state.Terminal)
			require.Empty(t, state.Allowed)
		}
		if state.State == workflow.StateSubmitted {
			require.Equal(t, []workflow.State{workflow.StateReviewedByHOD, workflow.StateReturnedByHOD}, state.Allowed)
		}
	}
}
