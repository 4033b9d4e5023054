package reporting

// CostBuckets carries the sixteen charted cost categories for one user
// and month. The fields are rendered into the report page as plain
// numeric literals; the pie chart reads nothing else.
type CostBuckets struct {
	PVA   float64 // processing value add
	PVE   float64 // processing value enabling
	PNV   float64 // processing non-value
	QAPP  float64 // quality appraisal
	QPR   float64 // quality prevention
	QIF   float64 // quality internal failure
	QIFPQ float64
	QIFPI float64
	QIFRC float64
	QEF   float64 // quality external failure
	QEFQR float64
	QEFER float64
	QEFCE float64
	COUTT float64 // cost of unused time, total
	COUUL float64
	COUAL float64
}

// bucketOrder fixes the slice order of the chart. Charts drawn from the
// same data must come out identical, so map iteration is out.
var bucketOrder = []string{
	"PVA", "PVE", "PNV",
	"QAPP", "QPR",
	"QIF", "QIFPQ", "QIFPI", "QIFRC",
	"QEF", "QEFQR", "QEFER", "QEFCE",
	"COUTT", "COUUL", "COUAL",
}

// BucketsFromTotals fills a CostBuckets from summed group minutes.
// Groups outside the sixteen known buckets are dropped.
func BucketsFromTotals(totals map[string]float64) CostBuckets {
	b := CostBuckets{}
	for code, value := range totals {
		if field := b.field(code); field != nil {
			*field = value
		}
	}
	return b
}

func (b *CostBuckets) field(code string) *float64 {
	switch code {
	case "PVA":
		return &b.PVA
	case "PVE":
		return &b.PVE
	case "PNV":
		return &b.PNV
	case "QAPP":
		return &b.QAPP
	case "QPR":
		return &b.QPR
	case "QIF":
		return &b.QIF
	case "QIFPQ":
		return &b.QIFPQ
	case "QIFPI":
		return &b.QIFPI
	case "QIFRC":
		return &b.QIFRC
	case "QEF":
		return &b.QEF
	case "QEFQR":
		return &b.QEFQR
	case "QEFER":
		return &b.QEFER
	case "QEFCE":
		return &b.QEFCE
	case "COUTT":
		return &b.COUTT
	case "COUUL":
		return &b.COUUL
	case "COUAL":
		return &b.COUAL
	}
	return nil
}

// PieSlice is one labelled chart value.
type PieSlice struct {
	Label string
	Value float64
}

// PieSlices returns the bucket values in stable chart order.
func (b *CostBuckets) PieSlices() []PieSlice {
	slices := make([]PieSlice, 0, len(bucketOrder))
	for _, code := range bucketOrder {
		slices = append(slices, PieSlice{Label: code, Value: *b.field(code)})
	}
	return slices
}
