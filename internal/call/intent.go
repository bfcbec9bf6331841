package call

import "strings"

// Intent is one of the closed set of healthcare request categories. The
// taxonomy is closed by contract: classification always yields exactly one
// of these values, falling back to IntentGeneralInquiry when the model
// output cannot be mapped.
type Intent string

const (
	IntentAppointmentScheduling    Intent = "appointment_scheduling"
	IntentInsuranceCoverageInquiry Intent = "insurance_coverage_inquiry"
	IntentPrescriptionRefill       Intent = "prescription_refill"
	IntentBillingInquiry           Intent = "billing_inquiry"
	IntentGeneralInquiry           Intent = "general_inquiry"
)

// Intents lists the full taxonomy in declared order.
var Intents = []Intent{
	IntentAppointmentScheduling,
	IntentInsuranceCoverageInquiry,
	IntentPrescriptionRefill,
	IntentBillingInquiry,
	IntentGeneralInquiry,
}

// IntentKeywords maps each intent to bilingual (en/es) trigger words. Used
// by the offline rules classifier and useful for evaluation tooling.
var IntentKeywords = map[Intent][]string{
	IntentAppointmentScheduling:    {"cita", "agendar", "horario", "disponible", "appointment", "schedule"},
	IntentInsuranceCoverageInquiry: {"seguro", "cobertura", "cubre", "insurance", "coverage"},
	IntentPrescriptionRefill:       {"receta", "medicamento", "reposición", "prescription", "refill"},
	IntentBillingInquiry:           {"factura", "pago", "costo", "billing", "payment", "cost"},
	IntentGeneralInquiry:           {"información", "pregunta", "duda", "information", "question"},
}

// ParseIntent maps free-form model output to the closed taxonomy. It accepts
// exact label matches after normalization (case, surrounding whitespace,
// spaces/hyphens as underscores) and labels embedded in a longer sentence.
// Anything unmappable yields (IntentGeneralInquiry, false) so callers can
// distinguish a genuine classification from the documented fallback.
func ParseIntent(raw string) (Intent, bool) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)

	for _, in := range Intents {
		if norm == string(in) {
			return in, true
		}
	}
	// Tolerate labels wrapped in prose ("the intent is prescription_refill.").
	for _, in := range Intents {
		if strings.Contains(norm, string(in)) {
			return in, true
		}
	}
	return IntentGeneralInquiry, false
}
