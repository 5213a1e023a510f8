package parquetio

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// BeneficiaryColumns are required in a batch scoring input.
var BeneficiaryColumns = []string{"beneficiary_id", "age", "sex", "diagnosis_codes"}

// RecordColumns are required in a service-level record input.
var RecordColumns = []string{"linked_diagnosis_codes", "claim_diagnosis_codes"}

// ValidateSchema checks that the schema contains every required column.
func ValidateSchema(schema *parquet.Schema, required ...string) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}

	var missing []string
	for _, col := range required {
		if !columns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
