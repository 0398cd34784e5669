package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"flightdelay/ml"
	"github.com/go-playground/validator/v10"
)

type flightItem struct {
	Opera     *string `json:"OPERA" validate:"required,carrier"`
	TipoVuelo *string `json:"TIPOVUELO" validate:"required,flighttype"`
	Mes       *int    `json:"MES" validate:"required,gt=1,lte=12"`
}

type predictionPayload struct {
	Flights []flightItem `json:"flights" validate:"required,dive"`
}

func (p predictionPayload) records() []ml.FlightRecord {
	records := make([]ml.FlightRecord, len(p.Flights))
	for i, f := range p.Flights {
		records[i] = ml.FlightRecord{Opera: *f.Opera, TipoVuelo: *f.TipoVuelo, Mes: *f.Mes}
	}
	return records
}

// errorDetail is one entry of the 400 response detail list.
type errorDetail struct {
	Type  string        `json:"type"`
	Loc   []interface{} `json:"loc"`
	Msg   string        `json:"msg"`
	Input interface{}   `json:"input"`
}

type validationResponse struct {
	Detail []errorDetail `json:"detail"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("carrier", func(fl validator.FieldLevel) bool {
		return ml.IsKnownCarrier(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("flighttype", func(fl validator.FieldLevel) bool {
		return ml.IsKnownFlightType(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// decodePredictionPayload returns the payload, or a status and the error
// details to send back.
func decodePredictionPayload(r *http.Request) (predictionPayload, int, []errorDetail) {
	var payload predictionPayload
	dec := json.NewDecoder(r.Body)
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return payload, decodeStatus(err), decodeErrorDetails(err)
	}
	if err := dec.Decode(&json.RawMessage{}); err != io.EOF {
		if err != nil && decodeStatus(err) != http.StatusBadRequest {
			return payload, decodeStatus(err), decodeErrorDetails(err)
		}
		return payload, http.StatusBadRequest, []errorDetail{{
			Type: "json_invalid", Loc: []interface{}{"body", dec.InputOffset()},
			Msg: "JSON decode error", Input: map[string]interface{}{},
		}}
	}
	if err := json.Unmarshal(exactPayloadKeys(raw), &payload); err != nil {
		return payload, http.StatusBadRequest, decodeErrorDetails(err)
	}

	err := validate.Struct(payload)
	if err == nil {
		return payload, http.StatusOK, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return payload, http.StatusBadRequest, []errorDetail{{
			Type: "value_error", Loc: []interface{}{"body"}, Msg: err.Error(),
		}}
	}
	details := make([]errorDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fieldErrorDetail(fe))
	}
	return payload, http.StatusBadRequest, details
}

// exactPayloadKeys drops every member whose name is not spelled exactly
// "flights", "OPERA", "TIPOVUELO" or "MES", so a wrong-case key reads as
// missing instead of being folded onto the field. Values that are not the
// expected shape pass through for the typed decode to reject.
func exactPayloadKeys(raw json.RawMessage) json.RawMessage {
	body := exactKeys(raw, "flights")
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return body
	}
	var items []json.RawMessage
	if err := json.Unmarshal(obj["flights"], &items); err != nil || items == nil {
		return body
	}
	for i, item := range items {
		items[i] = exactKeys(item, "OPERA", "TIPOVUELO", "MES")
	}
	flights, err := json.Marshal(items)
	if err != nil {
		return body
	}
	obj["flights"] = flights
	out, err := json.Marshal(obj)
	if err != nil {
		return body
	}
	return out
}

func exactKeys(raw json.RawMessage, names ...string) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return raw
	}
	kept := make(map[string]json.RawMessage, len(names))
	for _, name := range names {
		if v, ok := obj[name]; ok {
			kept[name] = v
		}
	}
	out, err := json.Marshal(kept)
	if err != nil {
		return raw
	}
	return out
}

func decodeStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func decodeErrorDetails(err error) []errorDetail {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		tooLarge  *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return []errorDetail{{Type: "missing", Loc: []interface{}{"body"}, Msg: "Field required"}}
	case errors.As(err, &tooLarge):
		return []errorDetail{{
			Type: "too_large", Loc: []interface{}{"body"},
			Msg: fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit),
		}}
	case errors.As(err, &syntaxErr):
		return []errorDetail{{
			Type: "json_invalid", Loc: []interface{}{"body", syntaxErr.Offset},
			Msg: "JSON decode error", Input: map[string]interface{}{},
		}}
	case errors.As(err, &typeErr):
		loc := []interface{}{"body"}
		if typeErr.Field != "" {
			for _, part := range strings.Split(typeErr.Field, ".") {
				loc = append(loc, part)
			}
		}
		kind, msg := typeMessage(typeErr.Type)
		return []errorDetail{{Type: kind, Loc: loc, Msg: msg, Input: typeErr.Value}}
	default:
		return []errorDetail{{Type: "json_invalid", Loc: []interface{}{"body"}, Msg: err.Error()}}
	}
}

func typeMessage(t reflect.Type) (string, string) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int64:
		return "int_type", "Input should be a valid integer"
	case reflect.String:
		return "string_type", "Input should be a valid string"
	case reflect.Slice:
		return "list_type", "Input should be a valid list"
	default:
		return "model_type", "Input should be a valid dictionary or object"
	}
}

func fieldErrorDetail(fe validator.FieldError) errorDetail {
	d := errorDetail{Loc: namespaceLoc(fe.Namespace()), Input: fe.Value()}
	switch fe.Tag() {
	case "required":
		d.Type, d.Msg, d.Input = "missing", "Field required", nil
	case "carrier":
		d.Type, d.Msg = "literal_error", "Input should be "+literalList(ml.Carriers())
	case "flighttype":
		d.Type, d.Msg = "literal_error", "Input should be "+literalList(ml.FlightTypes())
	case "gt":
		d.Type, d.Msg = "greater_than", "Input should be greater than "+fe.Param()
	case "lte":
		d.Type, d.Msg = "less_than_equal", "Input should be less than or equal to "+fe.Param()
	default:
		d.Type, d.Msg = "value_error", fe.Error()
	}
	return d
}

// namespaceLoc turns "predictionPayload.flights[0].MES" into
// ["body", "flights", 0, "MES"].
func namespaceLoc(ns string) []interface{} {
	loc := []interface{}{"body"}
	parts := strings.Split(ns, ".")
	for _, part := range parts[1:] {
		name, rest, indexed := strings.Cut(part, "[")
		loc = append(loc, name)
		if !indexed {
			continue
		}
		if idx, err := strconv.Atoi(strings.TrimSuffix(rest, "]")); err == nil {
			loc = append(loc, idx)
		}
	}
	return loc
}

// literalList renders values as 'a', 'b' or 'c'.
func literalList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}
