package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gyeh/rafscore/internal/extract"
	"github.com/gyeh/rafscore/internal/hcc"
	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/raf"
)

type diagnosisRequest struct {
	ModelName      string                  `json:"model_name"`
	DiagnosisCodes []string                `json:"diagnosis_codes"`
	Demographics   model.DemographicsInput `json:"demographics"`
}

// claimDocument carries either a JSON object (FHIR) or a string (X12, or
// FHIR serialized as text) in Data.
type claimDocument struct {
	Format string          `json:"format"`
	Data   json.RawMessage `json:"data"`
}

type claimsRequest struct {
	ModelName    string                  `json:"model_name"`
	Documents    []claimDocument         `json:"documents"`
	Demographics model.DemographicsInput `json:"demographics"`
}

type claimsResponse struct {
	Result  *model.RAFResult `json:"result"`
	Skipped []extract.Skip   `json:"skipped"`
}

type recordsRequest struct {
	ModelName    string                     `json:"model_name"`
	Records      []model.ServiceLevelRecord `json:"records"`
	Demographics model.DemographicsInput    `json:"demographics"`
}

func (s *Server) registerRAFRoutes(g *echo.Group) {
	g.POST("/diagnosis", s.scoreDiagnosis)
	g.POST("/claims", s.scoreClaims)
	g.POST("/records", s.scoreRecords)
}

func (s *Server) scoreDiagnosis(c echo.Context) error {
	var req diagnosisRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	calc, err := s.calculator(req.ModelName)
	if err != nil {
		return err
	}
	res, err := calc.FromDiagnosis(req.DiagnosisCodes, req.Demographics)
	if err != nil {
		return scoreError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) scoreClaims(c echo.Context) error {
	var req claimsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	calc, err := s.calculator(req.ModelName)
	if err != nil {
		return err
	}

	docs := make([]extract.Document, len(req.Documents))
	for i, d := range req.Documents {
		f, err := extract.ParseFormat(d.Format)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		docs[i] = extract.Document{Format: f, Data: documentBytes(d.Data)}
	}

	res, skips, err := calc.FromClaims(c.Request().Context(), docs, req.Demographics)
	if err != nil {
		return scoreError(err)
	}
	if skips == nil {
		skips = []extract.Skip{}
	}
	return c.JSON(http.StatusOK, claimsResponse{Result: res, Skipped: skips})
}

func (s *Server) scoreRecords(c echo.Context) error {
	var req recordsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	calc, err := s.calculator(req.ModelName)
	if err != nil {
		return err
	}
	res, err := calc.FromRecords(req.Records, req.Demographics)
	if err != nil {
		return scoreError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// documentBytes unwraps a JSON string; anything else is passed through.
func documentBytes(raw json.RawMessage) []byte {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []byte(s)
	}
	return raw
}

// scoreError maps validation failures to 422 and everything else to 500.
func scoreError(err error) error {
	var (
		ierr *raf.InputError
		herr *hcc.ValidationError
		xerr *extract.ValidationError
	)
	if errors.As(err, &ierr) || errors.As(err, &herr) || errors.As(err, &xerr) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return err
}
