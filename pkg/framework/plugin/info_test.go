package plugin

import "testing"

func TestStaticUIDExplicitID(t *testing.T) {
	info := Info{ID: "sushi.internal.gain", Name: "Gain"}
	if got := info.StaticUID(); got != "sushi.internal.gain" {
		t.Errorf("StaticUID() = %q, want explicit ID", got)
	}
}

func TestStaticUIDDeterministic(t *testing.T) {
	info := Info{Name: "My Processor", Version: "1.0.0"}

	uid1 := info.StaticUID()
	uid2 := info.StaticUID()
	if uid1 != uid2 {
		t.Errorf("StaticUID() is not deterministic: %q != %q", uid1, uid2)
	}
}

func TestStaticUIDUniqueness(t *testing.T) {
	infos := []Info{
		{Name: "Plugin One", Version: "1.0.0"},
		{Name: "Plugin Two", Version: "1.0.0"},
		{Name: "Plugin One", Version: "2.0.0"},
	}

	seen := make(map[string]string)
	for _, info := range infos {
		uid := info.StaticUID()
		if prev, exists := seen[uid]; exists {
			t.Errorf("UID collision between %q and %q", prev, info.Name)
		}
		seen[uid] = info.Name
	}
}

func TestInfoValidate(t *testing.T) {
	tests := []struct {
		name    string
		info    Info
		wantErr bool
	}{
		{name: "valid", info: Info{Name: "Gain"}, wantErr: false},
		{name: "missing name", info: Info{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.info.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
