package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultVoivodeships maps the two-letter station-code prefix to its voivodeship.
var DefaultVoivodeships = map[string]string{
	"Ds": "dolnośląskie",
	"Kp": "kujawsko-pomorskie",
	"Lu": "lubelskie",
	"Lb": "lubuskie",
	"Ld": "łódzkie",
	"Mp": "małopolskie",
	"Mz": "mazowieckie",
	"Op": "opolskie",
	"Pk": "podkarpackie",
	"Pd": "podlaskie",
	"Pm": "pomorskie",
	"Sl": "śląskie",
	"Sk": "świętokrzyskie",
	"Wm": "warmińsko-mazurskie",
	"Wp": "wielkopolskie",
	"Zp": "zachodniopomorskie",
}

// VoivodeshipExceedance is the number of days a voivodeship's daily mean was above
// the threshold.
type VoivodeshipExceedance struct {
	Voivodeship string `json:"voivodeship"`
	Days        int    `json:"days"`
}

// VoivodeshipOf resolves a station code's voivodeship from its two-letter prefix.
// Prefix matching ignores case.
func VoivodeshipOf(code string, regions map[string]string) (string, error) {
	if len(code) < 2 {
		return "", fmt.Errorf("station code %q too short for a voivodeship prefix", code)
	}
	prefix := code[:2]
	if name, ok := regions[prefix]; ok {
		return name, nil
	}
	for p, name := range regions {
		if strings.EqualFold(p, prefix) {
			return name, nil
		}
	}
	return "", fmt.Errorf("station code %q: unknown voivodeship prefix %q", code, prefix)
}

// VoivodeshipExceedances pools all stations of a voivodeship into one daily mean
// per date and counts the dates strictly above threshold. Every voivodeship with
// data is reported, sorted by days descending then name. A station code whose
// prefix is not in regions is an error.
func VoivodeshipExceedances(obs []Observation, regions map[string]string, threshold float64) ([]VoivodeshipExceedance, error) {
	type key struct {
		region string
		date   time.Time
	}
	groups := make(map[key]*meanAcc)
	resolved := make(map[string]string)

	for _, o := range obs {
		if o.Missing {
			continue
		}
		region, ok := resolved[o.Station]
		if !ok {
			var err error
			region, err = VoivodeshipOf(o.Station, regions)
			if err != nil {
				return nil, err
			}
			resolved[o.Station] = region
		}
		k := key{region: region, date: civilDate(o.Time)}
		acc, ok := groups[k]
		if !ok {
			acc = &meanAcc{}
			groups[k] = acc
		}
		acc.add(o.PM25)
	}

	counts := make(map[string]int)
	for k, acc := range groups {
		if _, ok := counts[k.region]; !ok {
			counts[k.region] = 0
		}
		if acc.mean() > threshold {
			counts[k.region]++
		}
	}

	out := make([]VoivodeshipExceedance, 0, len(counts))
	for region, days := range counts {
		out = append(out, VoivodeshipExceedance{Voivodeship: region, Days: days})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Days != out[j].Days {
			return out[i].Days > out[j].Days
		}
		return out[i].Voivodeship < out[j].Voivodeship
	})
	return out, nil
}
