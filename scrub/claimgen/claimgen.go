package claimgen

import (
	"time"

	randomdata "github.com/Pallinder/go-randomdata"
	"github.com/pborman/uuid"
	"github.com/shopspring/decimal"

	"github.com/CMSgov/scrub-app/scrub/models"
)

var (
	minBirthDate   = time.Date(1930, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxBirthDate   = time.Date(2015, time.December, 31, 0, 0, 0, 0, time.UTC)
	minServiceDate = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

	procedureCodes = []string{"99213", "99214", "99203", "93000", "85025", "36415", "80053", "71046"}
	modifiers      = []string{"25", "59", "LT", "RT", "GT"}
	diagnosisCodes = []string{"Z00.00", "E11.9", "I10", "J06.9", "M54.5", "R51.9", "E78.5"}
	places         = []string{"11", "21", "22", "23", "02"}
	payers         = []string{"60054", "87726", "62308", "00430"}
)

// Defect names a single deliberate problem injected into a synthetic claim.
type Defect int

const (
	NoDefect Defect = iota
	MissingDateOfBirth
	MissingPayerID
	ShortProcedureCode
	MalformedDiagnosis
	UnknownPlaceOfService
	MalformedModifier
	defectCount
)

// Generate returns count synthetic claims. Each claim carries one random
// defect with probability defectRate.
func Generate(count int, defectRate float64) []models.Claim {
	claims := make([]models.Claim, 0, count)
	for i := 0; i < count; i++ {
		defect := NoDefect
		if defectRate > 0 && defectRate >= randomdata.Decimal(0, 1, 4) {
			defect = Defect(randomdata.Number(int(MissingDateOfBirth), int(defectCount)))
		}
		claims = append(claims, Claim(defect))
	}
	return claims
}

// Claim returns a synthetic claim that is valid apart from the given defect.
func Claim(defect Defect) models.Claim {
	procedureCount := randomdata.Number(1, 4)
	procedures := make([]models.Procedure, 0, procedureCount)
	for i := 0; i < procedureCount; i++ {
		p := models.Procedure{Code: randomdata.StringSample(procedureCodes...)}
		if randomdata.Boolean() {
			p.Modifiers = []string{randomdata.StringSample(modifiers...)}
		}
		procedures = append(procedures, p)
	}

	claim := models.Claim{
		ID: uuid.NewRandom().String(),
		Patient: models.Patient{
			ID:          randomdata.Alphanumeric(10),
			Name:        randomdata.FullName(randomdata.RandomGender),
			DateOfBirth: randomDate(minBirthDate, maxBirthDate),
		},
		Insurance: models.Insurance{
			MemberID: randomdata.StringNumberExt(1, "", 9),
			PayerID:  randomdata.StringSample(payers...),
		},
		Procedures:     procedures,
		Diagnoses:      []models.Diagnosis{{Code: randomdata.StringSample(diagnosisCodes...)}},
		PlaceOfService: randomdata.StringSample(places...),
		ServiceDate:    randomDate(minServiceDate, time.Now()),
		TotalAmount:    decimal.NewFromFloat(randomdata.Decimal(40, 2500, 2)).Round(2),
	}

	switch defect {
	case MissingDateOfBirth:
		claim.Patient.DateOfBirth = ""
	case MissingPayerID:
		claim.Insurance.PayerID = ""
	case ShortProcedureCode:
		claim.Procedures[0].Code = claim.Procedures[0].Code[:4]
	case MalformedDiagnosis:
		claim.Diagnoses[0].Code = "DX" + randomdata.StringNumberExt(1, "", 3)
	case UnknownPlaceOfService:
		claim.PlaceOfService = "99"
	case MalformedModifier:
		claim.Procedures[0].Modifiers = []string{randomdata.StringSample("1", "ABC", "l")}
	}

	return claim
}

func randomDate(min, max time.Time) string {
	const layout = "2006-01-02"
	d := randomdata.FullDateInRange(min.Format(randomdata.DateInputLayout),
		max.Format(randomdata.DateInputLayout))
	t, err := time.Parse(randomdata.DateOutputLayout, d)
	// Since we're using the same output format, this should never occur
	if err != nil {
		panic("Cannot parse generated date " + err.Error())
	}
	return t.Format(layout)
}
