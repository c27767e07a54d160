package core

import "testing"

func TestCanDelete(t *testing.T) {
	tests := []struct {
		name       string
		uploadedBy string
		requester  string
		roles      []string
		want       bool
	}{
		{
			name:       "admin deletes anyone's file",
			uploadedBy: "alice",
			requester:  "bob",
			roles:      []string{"admin"},
			want:       true,
		},
		{
			name:       "operator deletes own file",
			uploadedBy: "alice",
			requester:  "alice",
			roles:      []string{"operator"},
			want:       true,
		},
		{
			name:       "operator denied on someone else's file",
			uploadedBy: "alice",
			requester:  "bob",
			roles:      []string{"operator"},
			want:       false,
		},
		{
			name:       "no roles denied even as uploader",
			uploadedBy: "alice",
			requester:  "alice",
			roles:      nil,
			want:       false,
		},
		{
			name:       "unknown role denied",
			uploadedBy: "alice",
			requester:  "alice",
			roles:      []string{"viewer"},
			want:       false,
		},
		{
			name:       "role matching ignores case and padding",
			uploadedBy: "alice",
			requester:  "bob",
			roles:      []string{" Admin "},
			want:       true,
		},
		{
			name:       "admin wins when mixed with operator",
			uploadedBy: "alice",
			requester:  "bob",
			roles:      []string{"operator", "admin"},
			want:       true,
		},
		{
			name:       "empty requester never owns",
			uploadedBy: "",
			requester:  "",
			roles:      []string{"operator"},
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanDelete(tt.uploadedBy, tt.requester, tt.roles)
			if got != tt.want {
				t.Errorf("CanDelete(%q, %q, %v) = %v, want %v",
					tt.uploadedBy, tt.requester, tt.roles, got, tt.want)
			}
		})
	}
}
