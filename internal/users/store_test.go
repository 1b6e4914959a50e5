package users

import "testing"

func TestDecodeUser(t *testing.T) {
	tests := []struct {
		name string
		data map[string]interface{}
		want User
	}{
		{
			name: "both fields",
			data: map[string]interface{}{"name": "Alice", "fcmToken": "tok-a"},
			want: User{Name: "Alice", FCMToken: "tok-a"},
		},
		{
			name: "missing fields",
			data: map[string]interface{}{"email": "a@example.com"},
			want: User{},
		},
		{
			name: "wrong types are ignored",
			data: map[string]interface{}{"name": 42, "fcmToken": true},
			want: User{},
		},
		{
			name: "nil document data",
			data: nil,
			want: User{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeUser(tt.data)
			if *got != tt.want {
				t.Errorf("decodeUser() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}
