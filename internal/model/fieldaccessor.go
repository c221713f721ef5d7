package model

// FieldAccessor is the reflective get/set contract the rename and filter
// stages evaluate against. Only string fields of ItemHeader are addressable
// this way, plus the epg_channel_id alias; numeric fields (virtual_id,
// category_id, input_id) are deliberately not exposed.
type FieldAccessor interface {
	GetField(name string) (string, bool)
	SetField(name, value string) bool
}

// GetField returns the named string field's value, or ok=false if name is
// not a recognized field.
func (it *Item) GetField(name string) (string, bool) {
	switch name {
	case "id":
		return it.ID, true
	case "name":
		return it.Name, true
	case "chno":
		return it.Chno, true
	case "logo":
		return it.Logo, true
	case "logo_small":
		return it.LogoSmall, true
	case "group":
		return it.Group, true
	case "title":
		return it.Title, true
	case "parent_code":
		return it.ParentCode, true
	case "audio_track":
		return it.AudioTrack, true
	case "time_shift":
		return it.TimeShift, true
	case "rec":
		return it.Rec, true
	case "url":
		return it.URL, true
	case "epg_channel_id", "epg_id":
		return it.EPGChannelID, true
	default:
		return "", false
	}
}

// SetField sets the named string field's value. Setting "url" is a no-op
// per the rename contract (writing to url never changes it) but still
// reports success so rename rules that happen to target url don't error.
func (it *Item) SetField(name, value string) bool {
	switch name {
	case "id":
		it.ID = value
	case "name":
		it.Name = value
	case "chno":
		it.Chno = value
	case "logo":
		it.Logo = value
	case "logo_small":
		it.LogoSmall = value
	case "group":
		it.Group = value
	case "title":
		it.Title = value
	case "parent_code":
		it.ParentCode = value
	case "audio_track":
		it.AudioTrack = value
	case "time_shift":
		it.TimeShift = value
	case "rec":
		it.Rec = value
	case "url":
		// writing to url is a no-op by contract
	case "epg_channel_id", "epg_id":
		it.EPGChannelID = value
	default:
		return false
	}
	return true
}
