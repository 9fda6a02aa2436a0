package content

import "testing"

func TestCoursesInfo(t *testing.T) {
	tests := []struct {
		name    string
		courses []Course
		want    string
	}{
		{name: "empty", courses: nil, want: "No courses\n"},
		{
			name:    "without descriptions",
			courses: []Course{{Title: "Go"}, {Title: "SQL"}},
			want:    "1. Go\n2. SQL\n",
		},
		{
			name:    "with description",
			courses: []Course{{Title: "Go", Description: "An introduction"}},
			want:    "1. Go\n   An introduction\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoursesInfo(tt.courses); got != tt.want {
				t.Errorf("CoursesInfo() = %q; want %q", got, tt.want)
			}
		})
	}
}
