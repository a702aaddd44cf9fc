package mentors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"fosterassist/lib/timezone"

	"github.com/stretchr/testify/require"
)

const testRosterBlob = `
login_url: "https://shelter.test/login"
search_url: "https://shelter.test/search"
animal_url: "https://shelter.test/animal/%d"
medical_details_url: "https://shelter.test/medical/%d"
list_animals_url: "https://shelter.test/animals/page/%d/person/%d"
mentors:
  - 555
`

func TestSheetsDirectory(t *testing.T) {
	aliceRows := [][]string{
		{"Mentee", "Person #", "Assigned", "", "Status"},
		{"Jane Doe", "555", "1/2/2026"},
		{"John Roe", "777", "3/4/2026", "", "Doing great"},
		{"Old Mentee", "888", "5/6/2024", "", "AutoUpdate: No animals 2026.01.01"},
		{"Completed Mentees"},
	}

	var mu sync.Mutex
	writes := map[string]string{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/":
			io.WriteString(w, `{"sheets":[{"properties":{"title":"Config"}},{"properties":{"title":"Alice"}},{"properties":{"title":"Template"}}]}`)
		case r.Method == http.MethodGet && r.URL.Path == "/values/Config!A1:H100":
			json.NewEncoder(w).Encode(map[string]any{"values": [][]string{{testRosterBlob}}})
		case r.Method == http.MethodGet && r.URL.Path == "/values/Alice!A1:H100":
			json.NewEncoder(w).Encode(map[string]any{"values": aliceRows})
		case r.Method == http.MethodGet && r.URL.Path == "/values/Template!A1:H100":
			json.NewEncoder(w).Encode(map[string]any{"values": [][]string{}})
		case r.Method == http.MethodPut:
			var body struct {
				Values [][]string `json:"values"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			mu.Lock()
			writes[r.URL.Path] = body.Values[0][0]
			mu.Unlock()
			io.WriteString(w, "{}")
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	directory := newSheetsDirectory(server.URL, SheetsConfig{
		SpreadsheetID: "workbook",
		AccessToken:   "token",
	})

	roster, err := directory.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "https://shelter.test/login", roster.LoginURL)
	require.Equal(t, []int{555}, roster.Mentors)

	mentees, err := directory.CurrentMentees(ctx)
	require.NoError(t, err)
	require.Len(t, mentees, 1)
	require.Equal(t, "Alice", mentees[0].Mentor)
	require.Len(t, mentees[0].Mentees, 3)

	require.Equal(t, []string{"Alice"}, directory.FindMatchingMentors(ctx, []string{"777"}))
	require.Empty(t, directory.FindMatchingMentors(ctx, []string{"someone@nowhere.test"}))

	// 555 has an empty status cell, 777 has a mentor-written note that
	// must survive below the stamp, 888 was stamped on an earlier run
	err = directory.SetCompletedMentees(ctx, "Alice", []int{555, 777, 888})
	require.NoError(t, err)

	note := fmt.Sprintf("AutoUpdate: No animals %s", timezone.Now().Format("2006.01.02"))
	require.Equal(t, map[string]string{
		"/values/Alice!E2": note,
		"/values/Alice!E3": note + "\r\nDoing great",
	}, writes)
}

func TestStampAutoUpdate(t *testing.T) {
	updated, ok := stampAutoUpdate("", "AutoUpdate: No animals 2026.08.29")
	require.True(t, ok)
	require.Equal(t, "AutoUpdate: No animals 2026.08.29", updated)

	updated, ok = stampAutoUpdate("3 kittens thriving", "AutoUpdate: No animals 2026.08.29")
	require.True(t, ok)
	require.Equal(t, "AutoUpdate: No animals 2026.08.29\r\n3 kittens thriving", updated)

	_, ok = stampAutoUpdate("AutoUpdate: No animals 2026.01.01", "AutoUpdate: No animals 2026.08.29")
	require.False(t, ok)
}
