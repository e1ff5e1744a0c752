package game

// Kind is the sprite/type tag an object is created with.
type Kind uint8

const (
	KindNone Kind = iota
	KindPlayer
	KindPlayer2 // Alternate walk-cycle frame of the player
	KindZombie
	KindTurret
	KindBullet  // Fired by the player
	KindBullet2 // Fired by turrets
	KindActivity
	KindHouse
	KindShop
	KindTree
	KindRadioTower
	KindBattery
	KindAntenna
	KindLogicBoard
	kindCount
)

var kindNames = [kindCount]string{
	KindNone:       "none",
	KindPlayer:     "player",
	KindPlayer2:    "player2",
	KindZombie:     "zombie",
	KindTurret:     "turret",
	KindBullet:     "bullet",
	KindBullet2:    "bullet2",
	KindActivity:   "activity",
	KindHouse:      "house",
	KindShop:       "shop",
	KindTree:       "tree",
	KindRadioTower: "radio_tower",
	KindBattery:    "battery",
	KindAntenna:    "antenna",
	KindLogicBoard: "logic_board",
}

// String returns the kind's name.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind maps a name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return KindNone, false
}

// Role selects an object's behaviour.
type Role uint8

const (
	RoleInert Role = iota
	RolePlayer
	RoleZombie
	RoleTurret
	RoleBullet
	RoleActivity
	RoleProp
	RoleCollectible
	roleCount
)

// String returns the role's name.
func (r Role) String() string {
	switch r {
	case RoleInert:
		return "inert"
	case RolePlayer:
		return "player"
	case RoleZombie:
		return "zombie"
	case RoleTurret:
		return "turret"
	case RoleBullet:
		return "bullet"
	case RoleActivity:
		return "activity"
	case RoleProp:
		return "prop"
	case RoleCollectible:
		return "collectible"
	default:
		return "unknown"
	}
}

// roleOf maps a creation kind to its role. Unknown kinds are inert.
func roleOf(k Kind) Role {
	switch k {
	case KindPlayer:
		return RolePlayer
	case KindZombie:
		return RoleZombie
	case KindTurret:
		return RoleTurret
	case KindBullet, KindBullet2:
		return RoleBullet
	case KindActivity:
		return RoleActivity
	case KindHouse, KindShop, KindTree, KindRadioTower:
		return RoleProp
	case KindBattery, KindAntenna, KindLogicBoard:
		return RoleCollectible
	default:
		return RoleInert
	}
}
