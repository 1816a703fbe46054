package sweep

import (
	"reflect"
	"testing"
)

func TestParseIntRangeSpec(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expected  IntRangeSpec
		expectErr bool
	}{
		{"valid_range", "8:16:2", IntRangeSpec{Min: 8, Max: 16, Step: 2}, false},
		{"with_spaces", " 128 : 1024 : 128 ", IntRangeSpec{Min: 128, Max: 1024, Step: 128}, false},
		{"missing_parts", "1:10", IntRangeSpec{}, true},
		{"too_many_parts", "1:10:2:3", IntRangeSpec{}, true},
		{"invalid_min", "a:10:2", IntRangeSpec{}, true},
		{"invalid_max", "1:b:2", IntRangeSpec{}, true},
		{"invalid_step", "1:10:c", IntRangeSpec{}, true},
		{"zero_step", "1:10:0", IntRangeSpec{}, true},
		{"negative_step", "1:10:-1", IntRangeSpec{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseIntRangeSpec(tc.input)
			if tc.expectErr {
				if err == nil {
					t.Errorf("Expected error for input %q, got nil", tc.input)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}
			if result != tc.expected {
				t.Errorf("Expected %+v, got %+v", tc.expected, result)
			}
		})
	}
}

func TestGenerateIntRange(t *testing.T) {
	testCases := []struct {
		name     string
		min      int
		max      int
		step     int
		expected []int
	}{
		{"difficulties", 8, 16, 2, []int{8, 10, 12, 14, 16}},
		{"not_on_step", 8, 15, 2, []int{8, 10, 12, 14}},
		{"single", 14, 14, 1, []int{14}},
		{"min_above_max", 16, 8, 2, nil},
		{"zero_step", 1, 10, 0, nil},
		{"too_long", 0, 1000000, 1, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := GenerateIntRange(tc.min, tc.max, tc.step)
			if !reflect.DeepEqual(result, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, result)
			}
		})
	}
}

func TestParseIntParamList(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expected  []int
		expectErr bool
	}{
		{"empty", "", nil, false},
		{"csv", "128,256, 512", []int{128, 256, 512}, false},
		{"range", "8:12:2", []int{8, 10, 12}, false},
		{"empty_range", "12:8:2", nil, true},
		{"bad_csv", "128,abc", nil, true},
		{"bad_range", "8:12", nil, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseIntParamList(tc.input)
			if tc.expectErr {
				if err == nil {
					t.Errorf("Expected error for input %q, got nil", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !reflect.DeepEqual(result, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, result)
			}
		})
	}
}

func TestParseFractionList(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expected  []int
		expectErr bool
	}{
		{"empty", " ", nil, false},
		{"denominators", "2,4", []int{2, 4}, false},
		{"fractions", "1/2, 1/8", []int{2, 8}, false},
		{"mixed", "1/4,16", []int{4, 16}, false},
		{"numerator", "3/4", nil, true},
		{"zero", "0", nil, true},
		{"garbage", "half", nil, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseFractionList(tc.input)
			if tc.expectErr {
				if err == nil {
					t.Errorf("Expected error for input %q, got nil", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !reflect.DeepEqual(result, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, result)
			}
		})
	}
}
