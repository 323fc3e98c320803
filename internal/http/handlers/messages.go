package handlers

import "net/http"

// indonesianMessages translates caller-facing errors by code. English callers
// receive the error's own message.
var indonesianMessages = map[string]string{
	"config_missing":   "Layanan belum dikonfigurasi.",
	"invalid_input":    "Prompt wajib diisi.",
	"invalid_payload":  "Format permintaan tidak valid.",
	"submit_failed":    "Gagal mengirim permintaan ke layanan gambar.",
	"no_poll_handle":   "Layanan gambar tidak mengembalikan status pekerjaan.",
	"poll_failed":      "Gagal memeriksa status pembuatan gambar.",
	"timeout":          "Pembuatan gambar melebihi batas waktu.",
	"job_unsuccessful": "Pembuatan gambar gagal.",
	"no_locator_found": "Tidak ada gambar yang dihasilkan.",
	"canceled":         "Pembuatan gambar dibatalkan.",
	"not_found":        "Data tidak ditemukan.",
	"history_disabled": "Riwayat tidak tersedia.",
	"internal":         "Terjadi kesalahan internal.",
}

func localize(locale, code, message string) string {
	if locale == "id" {
		if msg, ok := indonesianMessages[code]; ok {
			return msg
		}
	}
	return message
}

// statusForCode maps taxonomy codes onto HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case "invalid_input", "invalid_payload":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "job_unsuccessful":
		return http.StatusUnprocessableEntity
	case "submit_failed", "no_poll_handle", "poll_failed", "no_locator_found":
		return http.StatusBadGateway
	case "timeout":
		return http.StatusGatewayTimeout
	case "canceled":
		return http.StatusRequestTimeout
	case "history_disabled":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
