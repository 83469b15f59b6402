package shoutmap

import (
	"fmt"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
)

// PluginName is the plugin file that defines the spell shouts.
const PluginName = "EquipSpellsAsShouts.esp"

// Local IDs of the plugin's records.
const (
	WordLocalID           form.ID = 0x801
	UnlearnedWordLocalID  form.ID = 0x802
	DefaultShoutLocalID   form.ID = 0x8ff
	FafShoutFirstLocalID  form.ID = 0x900
	ConcShoutFirstLocalID form.ID = 0x980
	ShoutsPerCategory             = 16
)

// FafShoutLocalIDs lists the fire-and-forget shouts in pool order.
func FafShoutLocalIDs() []form.ID {
	return localRange(FafShoutFirstLocalID, ShoutsPerCategory)
}

// ConcShoutLocalIDs lists the concentration shouts in pool order.
func ConcShoutLocalIDs() []form.ID {
	return localRange(ConcShoutFirstLocalID, ShoutsPerCategory)
}

func localRange(first form.ID, n int) []form.ID {
	ids := make([]form.ID, n)
	for i := range ids {
		ids[i] = first + form.ID(i)
	}
	return ids
}

// DiscoverContent looks up the plugin's records. The words and the default
// shout must exist; spell shouts that are missing are left out of their pool
// and listed in MissingShouts.
func DiscoverContent(forms host.Forms, plugin string) (*Content, error) {
	c := &Content{
		Word:          forms.Word(plugin, WordLocalID),
		UnlearnedWord: forms.Word(plugin, UnlearnedWordLocalID),
		DefaultShout:  forms.Shout(plugin, DefaultShoutLocalID),
	}
	if c.Word == nil {
		return nil, fmt.Errorf("%w: word %s:%s", ErrMissingContent, plugin, WordLocalID)
	}
	if c.UnlearnedWord == nil {
		return nil, fmt.Errorf("%w: word %s:%s", ErrMissingContent, plugin, UnlearnedWordLocalID)
	}
	if c.DefaultShout == nil {
		return nil, fmt.Errorf("%w: shout %s:%s", ErrMissingContent, plugin, DefaultShoutLocalID)
	}

	c.FafShouts, c.MissingShouts = lookupShouts(forms, plugin, FafShoutLocalIDs(), c.MissingShouts)
	c.ConcShouts, c.MissingShouts = lookupShouts(forms, plugin, ConcShoutLocalIDs(), c.MissingShouts)
	return c, nil
}

func lookupShouts(forms host.Forms, plugin string, ids []form.ID, missing []form.ID) ([]*host.Shout, []form.ID) {
	shouts := make([]*host.Shout, 0, len(ids))
	for _, id := range ids {
		s := forms.Shout(plugin, id)
		if s == nil {
			missing = append(missing, id)
			continue
		}
		shouts = append(shouts, s)
	}
	return shouts, missing
}
