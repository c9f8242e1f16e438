// cybercraft-launcher/controller/settings.go
package controller

import "context"

const minRAMGigabytes = 2

// ramBounds is [2, max(2, maxMemory-1)].
func ramBounds(maxMemoryGB int) (int, int) {
	upper := maxMemoryGB - 1
	if upper < minRAMGigabytes {
		upper = minRAMGigabytes
	}
	return minRAMGigabytes, upper
}

func (c *Controller) OpenSettings() {
	c.update(func(s *State) {
		draft := s.Settings
		s.Draft = &draft
	})
}

func (c *Controller) CancelSettings() {
	c.update(func(s *State) { s.Draft = nil })
}

func (c *Controller) AdjustRAM(delta int) {
	c.update(func(s *State) {
		if s.Draft == nil {
			return
		}
		lo, hi := ramBounds(s.MaxMemoryGB)
		ram := s.Draft.RAMGigabytes + delta
		if ram < lo {
			ram = lo
		}
		if ram > hi {
			ram = hi
		}
		s.Draft.RAMGigabytes = ram
	})
}

// BrowseGamePath asks the host for a folder. Cancelling leaves the draft
// as it was; nothing is saved until SaveSettings.
func (c *Controller) BrowseGamePath(ctx context.Context) error {
	res, err := c.gateway.SelectDirectory(ctx)
	if err != nil {
		c.setStatus("Folder picker failed: %v", err)
		return err
	}
	if res.Cancelled {
		return nil
	}
	c.update(func(s *State) {
		if s.Draft != nil {
			s.Draft.GamePath = res.Path
		}
	})
	return nil
}

func (c *Controller) SaveSettings(ctx context.Context) error {
	c.mutex.Lock()
	draft := c.state.Draft
	c.mutex.Unlock()
	if draft == nil {
		return nil
	}
	settings := *draft
	if err := c.gateway.SaveSettings(ctx, settings); err != nil {
		c.setStatus("Could not save settings: %v", err)
		return err
	}
	c.update(func(s *State) {
		s.Settings = settings
		s.Draft = nil
		s.Status = "Settings saved"
	})
	return nil
}
