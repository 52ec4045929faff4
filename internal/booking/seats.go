package booking

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/iliyamo/cinema-ticket-portal/internal/model"
)

// rowLetters are the row labels a studio can use.  Layouts are lettered A..J;
// there is no label scheme for an eleventh row.
const rowLetters = "ABCDEFGHIJ"

// MaxRows is the number of rows a seat grid can have.
const MaxRows = len(rowLetters)

// MaxColumns bounds the seats per row.
const MaxColumns = 50

// SeatLabels derives the ordered seat labels of a rows × columns studio:
// A1..A{columns}, B1.. and so on.  Non-positive dimensions fall back to the
// studio defaults (5 × 20).  Rows past MaxRows and columns past MaxColumns
// are dropped with a warning.  Labels carry no occupancy: every seat is
// presented as selectable.
func SeatLabels(rows, columns int) []string {
	rows, columns = model.Studio{Rows: rows, Columns: columns}.Shape()
	if rows > MaxRows {
		slog.Warn("studio has more rows than seat letters; extra rows dropped", "rows", rows, "max", MaxRows)
		rows = MaxRows
	}
	if columns > MaxColumns {
		slog.Warn("studio row is wider than supported; extra seats dropped", "columns", columns, "max", MaxColumns)
		columns = MaxColumns
	}
	out := make([]string, 0, rows*columns)
	for r := 0; r < rows; r++ {
		letter := string(rowLetters[r])
		for c := 1; c <= columns; c++ {
			out = append(out, letter+strconv.Itoa(c))
		}
	}
	return out
}

// ScheduleSeats returns the seat labels of a schedule's studio.
func ScheduleSeats(s model.Schedule) []string {
	return SeatLabels(s.Studio.Shape())
}

// parseSeat returns the canonical label ("A1") of a seat inside a
// rows × columns grid.  The row letter is case-insensitive; the column must
// be plain decimal digits without a sign or leading zero.
func parseSeat(rows, columns int, label string) (string, bool) {
	label = NormalizeSeat(label)
	if len(label) < 2 || len(label) > 4 {
		return "", false
	}
	r := strings.IndexByte(rowLetters, label[0])
	if r < 0 || r >= min(rows, MaxRows) {
		return "", false
	}
	digits := label[1:]
	if digits[0] == '0' {
		return "", false
	}
	n := 0
	for i := 0; i < len(digits); i++ {
		d := digits[i]
		if d < '0' || d > '9' {
			return "", false
		}
		n = n*10 + int(d-'0')
	}
	if n < 1 || n > min(columns, MaxColumns) {
		return "", false
	}
	return label[:1] + strconv.Itoa(n), true
}

// validSeat reports whether label is the canonical spelling of a seat
// inside a rows × columns grid.
func validSeat(rows, columns int, label string) bool {
	canon, ok := parseSeat(rows, columns, label)
	return ok && canon == label
}

// NormalizeSeat upper-cases and trims a seat label.
func NormalizeSeat(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}
