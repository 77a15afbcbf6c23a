package entity

import "fmt"

// Label класс образца: годная деталь или брак.
type Label string

const (
	LabelGood Label = "good" // годная деталь
	LabelBad  Label = "bad"  // дефект
)

// Labels перечисляет классы в порядке индексов классификатора.
// При равных вероятностях побеждает первый класс.
var Labels = []Label{LabelBad, LabelGood}

// ParseLabel проверяет строку метки.
func ParseLabel(s string) (Label, error) {
	switch Label(s) {
	case LabelGood, LabelBad:
		return Label(s), nil
	default:
		return "", fmt.Errorf("unknown label %q: want %q or %q", s, LabelGood, LabelBad)
	}
}

// Index возвращает номер класса для классификатора.
func (l Label) Index() int {
	for i, v := range Labels {
		if v == l {
			return i
		}
	}
	return -1
}

// LabelAt обратное к Index.
func LabelAt(i int) Label {
	return Labels[i]
}
