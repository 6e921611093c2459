package api

import "vc-readiness/internal/common/validation"

var answerValueSchema = map[string]interface{}{
	"type":  []interface{}{"string", "number", "array", "null"},
	"items": map[string]interface{}{"type": []interface{}{"string", "number"}},
}

var stageSchema = map[string]interface{}{
	"type": "string",
	"enum": []interface{}{"idea", "launched"},
}

var formDataSchema = map[string]interface{}{
	"type":                 "object",
	"additionalProperties": answerValueSchema,
}

var sessionSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"start_time": map[string]interface{}{"type": "number"},
		"csrf_token": map[string]interface{}{"type": "string"},
		"user_uuid":  map[string]interface{}{"type": "string"},
	},
}

var submissionSchema = validation.Schema{
	"type":     "object",
	"required": []interface{}{"startup_type", "form_data"},
	"properties": map[string]interface{}{
		"startup_type":     stageSchema,
		"form_data":        formDataSchema,
		"session_metadata": sessionSchema,
	},
}

var completionSchema = validation.Schema{
	"type":     "object",
	"required": []interface{}{"startup_type", "form_data"},
	"properties": map[string]interface{}{
		"startup_type": stageSchema,
		"form_data":    formDataSchema,
	},
}

var paymentIntentSchema = validation.Schema{
	"type":     "object",
	"required": []interface{}{"evaluation_id"},
	"properties": map[string]interface{}{
		"evaluation_id": map[string]interface{}{"type": "string", "minLength": 1},
	},
}

var unlockSchema = validation.Schema{
	"type":     "object",
	"required": []interface{}{"evaluation_id", "payment_intent_id"},
	"properties": map[string]interface{}{
		"evaluation_id":     map[string]interface{}{"type": "string", "minLength": 1},
		"payment_intent_id": map[string]interface{}{"type": "string", "minLength": 1},
	},
}
