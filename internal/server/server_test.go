package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/raf"
	"github.com/gyeh/rafscore/internal/refdata"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	rd := refdata.New()
	for _, m := range []model.ModelName{model.CMSHCCV24, model.CMSHCCV28} {
		rd.DxToCC[refdata.Key{Code: "E119", Model: m}] = []string{"19"}
		rd.Coefficients[refdata.Key{Code: "cna_f70_74", Model: m}] = 0.396
	}
	rd.DxToCC[refdata.Key{Code: "E119", Model: model.CMSHCCV28}] = []string{"38"}
	rd.Coefficients[refdata.Key{Code: "cna_hcc19", Model: model.CMSHCCV24}] = 0.105
	rd.Coefficients[refdata.Key{Code: "cna_hcc38", Model: model.CMSHCCV28}] = 0.166

	s, err := New(rd, raf.Options{Model: model.CMSHCCV24, Logger: zerolog.Nop()}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

const demo = `"demographics": {"age": 70, "sex": "F", "dual_elgbl_cd": "00", "orec": "0"}`

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected X-Request-ID response header")
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" || body["default_model"] != string(model.CMSHCCV24) {
		t.Errorf("body = %v", body)
	}
}

func TestScoreDiagnosis(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name  string
		body  string
		score float64
		hcc   string
	}{
		{"default model", `{"diagnosis_codes": ["E11.9"], ` + demo + `}`, 0.396 + 0.105, "19"},
		{"named model", `{"model_name": "CMS-HCC Model V28", "diagnosis_codes": ["E119"], ` + demo + `}`, 0.396 + 0.166, "38"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/v1/raf/diagnosis", tc.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
			}
			var res struct {
				RiskScore float64  `json:"risk_score"`
				HCCList   []string `json:"hcc_list"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if diff := res.RiskScore - tc.score; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("risk_score = %v, want %v", res.RiskScore, tc.score)
			}
			if len(res.HCCList) != 1 || res.HCCList[0] != tc.hcc {
				t.Errorf("hcc_list = %v", res.HCCList)
			}
		})
	}
}

func TestScoreDiagnosisErrors(t *testing.T) {
	s := newTestServer(t)
	cases := map[string]struct {
		body   string
		status int
	}{
		"empty codes":   {`{"diagnosis_codes": [], ` + demo + `}`, http.StatusUnprocessableEntity},
		"bad sex":       {`{"diagnosis_codes": ["E119"], "demographics": {"age": 70, "sex": "Z", "orec": "0"}}`, http.StatusUnprocessableEntity},
		"unknown model": {`{"model_name": "nope", "diagnosis_codes": ["E119"], ` + demo + `}`, http.StatusBadRequest},
		"bad json":      {`{"diagnosis_codes": `, http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/v1/raf/diagnosis", tc.body)
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d (body=%s)", rec.Code, tc.status, rec.Body.String())
			}
		})
	}
}

func TestScoreClaimsReportsSkips(t *testing.T) {
	body := `{
	  "documents": [
	    {"format": "fhir", "data": {
	      "resourceType": "ExplanationOfBenefit", "id": "eob-1",
	      "diagnosis": [{"sequence": 1, "diagnosisCodeableConcept": {"coding": [{"system": "http://hl7.org/fhir/sid/icd-10-cm", "code": "E119"}]}}]
	    }},
	    {"format": "x12", "data": "not an 837"}
	  ],
	  ` + demo + `
	}`
	rec := do(t, newTestServer(t), http.MethodPost, "/api/v1/raf/claims", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Result struct {
			HCCList []string `json:"hcc_list"`
		} `json:"result"`
		Skipped []struct {
			Index int `json:"index"`
		} `json:"skipped"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Result.HCCList) != 1 || resp.Result.HCCList[0] != "19" {
		t.Errorf("hcc_list = %v", resp.Result.HCCList)
	}
	if len(resp.Skipped) != 1 || resp.Skipped[0].Index != 1 {
		t.Errorf("skipped = %+v", resp.Skipped)
	}
}

func TestScoreClaimsUnknownFormat(t *testing.T) {
	body := `{"documents": [{"format": "hl7", "data": "MSH|"}], ` + demo + `}`
	rec := do(t, newTestServer(t), http.MethodPost, "/api/v1/raf/claims", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestScoreRecords(t *testing.T) {
	s := newTestServer(t)
	good := `{"records": [{"procedure_code": "99213", "service_date": "2024-01-06",
	  "claim_diagnosis_codes": ["E119"], "linked_diagnosis_codes": ["E119"]}], ` + demo + `}`
	rec := do(t, s, http.MethodPost, "/api/v1/raf/records", good)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"service_level_data"`) {
		t.Errorf("records missing from response: %s", rec.Body.String())
	}

	bad := `{"records": [{"claim_diagnosis_codes": ["E119"], "linked_diagnosis_codes": ["I10"]}], ` + demo + `}`
	rec = do(t, s, http.MethodPost, "/api/v1/raf/records", bad)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "record 0") {
		t.Errorf("status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestModels(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/v1/models", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "RxHCC Model V08") {
		t.Errorf("status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRequestIDPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	newTestServer(t).Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q", got)
	}
}
