package dataset

import "github.com/carelinehq/careline/internal/call"

// Scenario is one labeled template: an intent plus its canned phrasings per
// language. Phrasings double as ground-truth source text for evaluation.
type Scenario struct {
	Intent  call.Intent
	Phrases map[string][]string // ISO-639-1 code -> phrasings
}

// Scenarios is the built-in catalog, one scenario per taxonomy intent, in
// taxonomy order. Five phrasings each in English and Spanish.
var Scenarios = []Scenario{
	{
		Intent: call.IntentAppointmentScheduling,
		Phrases: map[string][]string{
			"en": {
				"I need to schedule a dental cleaning appointment for next week.",
				"Can I book an appointment with Dr. Smith for a check-up?",
				"I'd like to reschedule my appointment from tomorrow to next Monday.",
				"What are your available slots for a physical examination?",
				"I need to cancel my appointment scheduled for Friday.",
			},
			"es": {
				"Necesito programar una cita para limpieza dental la próxima semana.",
				"¿Puedo agendar una cita con el Dr. Smith para un chequeo?",
				"Me gustaría reprogramar mi cita de mañana para el próximo lunes.",
				"¿Cuáles son sus horarios disponibles para un examen físico?",
				"Necesito cancelar mi cita programada para el viernes.",
			},
		},
	},
	{
		Intent: call.IntentInsuranceCoverageInquiry,
		Phrases: map[string][]string{
			"en": {
				"Does my insurance cover dental implants?",
				"I need to know if my plan covers physical therapy sessions.",
				"What's my copay for specialist visits?",
				"Is this medication covered under my current insurance?",
				"Can you verify my insurance coverage for this procedure?",
			},
			"es": {
				"¿Mi seguro cubre implantes dentales?",
				"Necesito saber si mi plan cubre sesiones de fisioterapia.",
				"¿Cuál es mi copago para visitas al especialista?",
				"¿Este medicamento está cubierto por mi seguro actual?",
				"¿Puede verificar mi cobertura de seguro para este procedimiento?",
			},
		},
	},
	{
		Intent: call.IntentPrescriptionRefill,
		Phrases: map[string][]string{
			"en": {
				"I need a refill for my blood pressure medication.",
				"Can you refill my prescription for antibiotics?",
				"I'm running low on my diabetes medication, need a refill.",
				"How do I request a refill for my maintenance medication?",
				"My prescription is about to expire, can I get a refill?",
			},
			"es": {
				"Necesito un reabastecimiento de mi medicamento para la presión arterial.",
				"¿Puede reabastecer mi receta de antibióticos?",
				"Me estoy quedando sin mi medicamento para la diabetes, necesito un reabastecimiento.",
				"¿Cómo solicito un reabastecimiento de mi medicamento de mantenimiento?",
				"Mi receta está por vencer, ¿puedo obtener un reabastecimiento?",
			},
		},
	},
	{
		Intent: call.IntentBillingInquiry,
		Phrases: map[string][]string{
			"en": {
				"I received a bill that seems incorrect, can you help?",
				"What's the cost for a routine check-up?",
				"Do you offer payment plans for medical procedures?",
				"I need to understand my last medical bill.",
				"Can you explain the charges for my recent visit?",
			},
			"es": {
				"Recibí una factura que parece incorrecta, ¿puede ayudarme?",
				"¿Cuál es el costo de un chequeo de rutina?",
				"¿Ofrecen planes de pago para procedimientos médicos?",
				"Necesito entender mi última factura médica.",
				"¿Puede explicar los cargos de mi visita reciente?",
			},
		},
	},
	{
		Intent: call.IntentGeneralInquiry,
		Phrases: map[string][]string{
			"en": {
				"What are your office hours?",
				"Do you accept walk-in patients?",
				"What documents do I need to bring for my first visit?",
				"How do I access my medical records online?",
				"What's the best way to contact the doctor after hours?",
			},
			"es": {
				"¿Cuáles son sus horarios de atención?",
				"¿Aceptan pacientes sin cita?",
				"¿Qué documentos necesito traer para mi primera visita?",
				"¿Cómo accedo a mis registros médicos en línea?",
				"¿Cuál es la mejor manera de contactar al médico fuera de horario?",
			},
		},
	},
}
