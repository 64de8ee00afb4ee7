package timeline

import (
	"sort"

	"duo-journal-backend/internal/models"
)

// Stored author labels. The first member to join writes as LabelFirst.
const (
	LabelFirst  = "me"
	LabelSecond = "par"
)

// AwaitingPartner is reported as the partner name until a second member joins
const AwaitingPartner = "awaiting partner"

// Roles maps stored author labels onto the requester's point of view
type Roles struct {
	SelfLabel    string `json:"self_label"`
	PartnerLabel string `json:"partner_label"`
	PartnerName  string `json:"partner_name"`
}

// Pair returns the first and second joiners by ascending ID; ok is false while
// fewer than two members exist. Members past the first two are ignored.
func Pair(members []models.Member) (first, second models.Member, ok bool) {
	if len(members) < 2 {
		return models.Member{}, models.Member{}, false
	}

	ordered := make([]models.Member, len(members))
	copy(ordered, members)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ID < ordered[j].ID
	})
	return ordered[0], ordered[1], true
}

// ResolveRoles decides which author label belongs to the requester.
// Only the two members with the lowest IDs take part; members may be passed in any order.
func ResolveRoles(members []models.Member, requesterID int64) Roles {
	first, second, ok := Pair(members)
	if !ok {
		return Roles{
			SelfLabel:    LabelFirst,
			PartnerLabel: LabelSecond,
			PartnerName:  AwaitingPartner,
		}
	}

	if requesterID == first.ID {
		return Roles{
			SelfLabel:    LabelFirst,
			PartnerLabel: LabelSecond,
			PartnerName:  second.Name,
		}
	}
	return Roles{
		SelfLabel:    LabelSecond,
		PartnerLabel: LabelFirst,
		PartnerName:  first.Name,
	}
}
