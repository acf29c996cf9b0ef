package handlers

import (
	"fmt"
	"net/http"

	"lgd_site/models"
	"lgd_site/utils"
)

// SliderRange bounds the quick-adjust control of the converter.
type SliderRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// AreaUnitsResponse lists the supported units in display order.
type AreaUnitsResponse struct {
	Units  []models.AreaUnit `json:"units"`
	Slider SliderRange       `json:"slider"`
}

// ConversionResponse is a single converter result.
type ConversionResponse struct {
	Value  float64 `json:"value"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Result float64 `json:"result"`
	Text   string  `json:"text"`
}

// ConversionTableResponse converts one value to every unit. Conversions is
// empty unless Value is positive.
type ConversionTableResponse struct {
	Value       float64             `json:"value"`
	From        string              `json:"from"`
	Conversions []models.Conversion `json:"conversions"`
}

var defaultSlider = SliderRange{Min: 0, Max: 10, Step: 0.1}

func (h *Handler) GetAreaUnits(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, AreaUnitsResponse{
		Units:  h.converter.Units(),
		Slider: defaultSlider,
	})
}

func (h *Handler) ConvertArea(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.convert(q.Get("value"), q.Get("from"), q.Get("to"))
	h.metrics.Conversion(err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}

func (h *Handler) ConvertAreaToAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.convertAll(q.Get("value"), q.Get("from"))
	h.metrics.Conversion(err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}

func (h *Handler) convert(rawValue, from, to string) (ConversionResponse, error) {
	value, err := utils.ParseAreaValue(rawValue)
	if err != nil {
		return ConversionResponse{}, err
	}
	if from == "" || to == "" {
		return ConversionResponse{}, fmt.Errorf("%w: from and to are required", utils.ErrInvalidUnit)
	}
	result, err := h.converter.Convert(value, from, to)
	if err != nil {
		return ConversionResponse{}, err
	}
	return ConversionResponse{
		Value:  value,
		From:   from,
		To:     to,
		Result: result,
		Text:   utils.FormatConversion(value, from, result, to),
	}, nil
}

func (h *Handler) convertAll(rawValue, from string) (ConversionTableResponse, error) {
	value, err := utils.ParseAreaValue(rawValue)
	if err != nil {
		return ConversionTableResponse{}, err
	}
	if from == "" {
		return ConversionTableResponse{}, fmt.Errorf("%w: from is required", utils.ErrInvalidUnit)
	}
	resp := ConversionTableResponse{Value: value, From: from, Conversions: []models.Conversion{}}

	table, err := h.converter.ConversionTable(value, from)
	if err != nil {
		return ConversionTableResponse{}, err
	}
	if value > 0 {
		resp.Conversions = table
	}
	return resp, nil
}
