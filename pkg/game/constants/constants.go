package constants

// Replicated document layout
const (
	// PlayersMapName is the root array holding every player map
	PlayersMapName string = "players"
	// ActionsMapName is the key of the action ledger inside a player map
	ActionsMapName string = "actions"
	// AvatarMapName is the key of the avatar map inside a player map
	AvatarMapName string = "avatar"
	// AppsMapName is the key of the apps array inside a player map
	AppsMapName string = "apps"
	// PlayerIDKey identifies a player map across replicas
	PlayerIDKey string = "playerId"
	// TransformKey holds the packed transform written by the owner
	TransformKey string = "transform"
	// InstanceIDKey is the avatar instance id key
	InstanceIDKey string = "instanceId"

	// TransformLength is px,py,pz, qx,qy,qz,qw, sx,sy,sz, timeDiffMs
	TransformLength int = 11
	// TransformTimeDiffIndex is the position of the tick delta in the transform
	TransformTimeDiffIndex int = 10

	// PushOrigin tags the transaction a local player uses to write its transform
	PushOrigin string = "push"
)

const (
	// CrouchMaxTime is the crouch blend duration in milliseconds
	CrouchMaxTime float64 = 200
	// ActivateMaxTime is the activate blend duration in milliseconds
	ActivateMaxTime float64 = 750
	// AimTransitionMaxTime is the aim blend duration in milliseconds
	AimTransitionMaxTime float64 = 150

	// AvatarInterpolationFrameRate is the nominal rate remote samples arrive at
	AvatarInterpolationFrameRate float64 = 60
	// AvatarInterpolationTimeDelay is the delay window of remote interpolants in milliseconds
	AvatarInterpolationTimeDelay float64 = 1000 / (AvatarInterpolationFrameRate * 0.5)
	// AvatarInterpolationNumFrames is the snapshot capacity of remote interpolants
	AvatarInterpolationNumFrames int = 4

	// CrouchHeightReduction is how much a full crouch shrinks the pose
	CrouchHeightReduction float64 = 0.4
)

const (
	// NumLoadoutSlots is the number of wear slots on a player
	NumLoadoutSlots int = 8
	// ActionIDLength is the length of generated action ids
	ActionIDLength int = 5
)

// Character capsule sizing, relative to the avatar height
const (
	HeightFactor        float64 = 1.6
	BaseRadius          float64 = 0.3
	DefaultAvatarHeight float64 = 1
)

const (
	// PlayerSpeed is the walking speed of a local player in meters per second
	PlayerSpeed float64 = 3.0
	// PlayerJumpSpeed is the initial vertical speed of a jump
	PlayerJumpSpeed float64 = 5.0
	// PlayerGravityMultiplier scales kinematic gravity for the capsule
	PlayerGravityMultiplier float64 = 1.0
)

const (
	// VoiceEndpoint is the default text to speech endpoint
	VoiceEndpoint string = "https://voice-cw.webaverse.com/tts"
	// AnalyserFFTSize is the window size of the remote voice analyser
	AnalyserFFTSize int = 2048
)
