package entity

// Counts количество образцов по классам.
type Counts struct {
	Good int `json:"good"`
	Bad  int `json:"bad"`
}

// Of возвращает счётчик для метки.
func (c Counts) Of(label Label) int {
	if label == LabelGood {
		return c.Good
	}
	return c.Bad
}

// SampleSet хранилище размеченных векторов признаков: метка -> векторы
// в порядке добавления. Образцы только добавляются.
type SampleSet struct {
	Extractor string                    `json:"extractor,omitempty"`
	Samples   map[Label][]FeatureVector `json:"samples"`
}

// NewSampleSet создаёт пустое хранилище с обоими классами.
func NewSampleSet() *SampleSet {
	return &SampleSet{
		Samples: map[Label][]FeatureVector{
			LabelGood: {},
			LabelBad:  {},
		},
	}
}

// Normalize гарантирует наличие обоих классов после декодирования.
func (s *SampleSet) Normalize() {
	if s.Samples == nil {
		s.Samples = make(map[Label][]FeatureVector, len(Labels))
	}
	for _, l := range Labels {
		if s.Samples[l] == nil {
			s.Samples[l] = []FeatureVector{}
		}
	}
}

// Append добавляет вектор и возвращает новое количество образцов метки.
func (s *SampleSet) Append(label Label, v FeatureVector) int {
	s.Samples[label] = append(s.Samples[label], v.Clone())
	return len(s.Samples[label])
}

// Truncate откатывает метку до n образцов.
func (s *SampleSet) Truncate(label Label, n int) {
	if n < len(s.Samples[label]) {
		s.Samples[label] = s.Samples[label][:n]
	}
}

// Len количество образцов метки.
func (s *SampleSet) Len(label Label) int {
	return len(s.Samples[label])
}

// Total общее количество образцов.
func (s *SampleSet) Total() int {
	return s.Len(LabelGood) + s.Len(LabelBad)
}

// Counts возвращает количество образцов по классам.
func (s *SampleSet) Counts() Counts {
	return Counts{Good: s.Len(LabelGood), Bad: s.Len(LabelBad)}
}

// FeatureLength длина векторов в хранилище, 0 если оно пустое.
func (s *SampleSet) FeatureLength() int {
	for _, l := range Labels {
		if vs := s.Samples[l]; len(vs) > 0 {
			return len(vs[0])
		}
	}
	return 0
}

// Snapshot возвращает глубокую копию хранилища.
func (s *SampleSet) Snapshot() *SampleSet {
	out := &SampleSet{Extractor: s.Extractor, Samples: make(map[Label][]FeatureVector, len(s.Samples))}
	for l, vs := range s.Samples {
		cp := make([]FeatureVector, len(vs))
		for i, v := range vs {
			cp[i] = v.Clone()
		}
		out.Samples[l] = cp
	}
	return out
}
