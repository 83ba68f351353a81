package blocks

// Each mode's callbacks can read or write across most of its blocks in the
// same broad phase set; allPlay/allWatch name that repeated set once so
// the tables below read as the deltas (which blocks are read-only, which
// phases are excluded) rather than repeating the full phase list per row.
var (
	allPlay = []string{
		"preprocess", "spawnOrder", "shouldSpawn", "initialize",
		"updateSequential", "touch", "updateParallel", "terminate",
	}
	allWatch = []string{
		"preprocess", "spawnTime", "despawnTime", "initialize",
		"updateSequential", "updateParallel", "terminate", "updateSpawn",
	}
	allPreview  = []string{"preprocess", "render"}
	allTutorial = []string{"preprocess", "navigate", "update"}
)

var tutorialBlocks = map[string]Entry{
	"RuntimeEnvironment":       {1000, phases(allTutorial...), phases("preprocess")},
	"RuntimeUpdate":            {1001, phases(allTutorial...), phases()},
	"RuntimeSkinTransform":     {1002, phases(allTutorial...), phases(allTutorial...)},
	"RuntimeParticleTransform": {1003, phases(allTutorial...), phases(allTutorial...)},
	"RuntimeBackground":        {1004, phases(allTutorial...), phases(allTutorial...)},
	"RuntimeUI":                {1005, phases(allTutorial...), phases("preprocess")},
	"RuntimeUIConfiguration":   {1006, phases(allTutorial...), phases("preprocess")},
	"TutorialMemory":           {2000, phases(allTutorial...), phases(allTutorial...)},
	"TutorialData":             {2001, phases(allTutorial...), phases("preprocess")},
	"TutorialInstruction":      {2002, phases(allTutorial...), phases(allTutorial...)},
	"EngineRom":                {3000, phases(allTutorial...), phases()},
	"TemporaryMemory":          {TemporaryMemory, phases(allTutorial...), phases(allTutorial...)},
}

var playBlocks = map[string]Entry{
	"RuntimeEnvironment":       {1000, phases(allPlay...), phases("preprocess")},
	"RuntimeUpdate":            {1001, phases(allPlay...), phases()},
	"RuntimeTouchArray":        {1002, phases(allPlay...), phases()},
	"RuntimeSkinTransform":     {1003, phases(allPlay...), phases("preprocess", "updateSequential", "touch")},
	"RuntimeParticleTransform": {1004, phases(allPlay...), phases("preprocess", "updateSequential", "touch")},
	"RuntimeBackground":        {1005, phases(allPlay...), phases("preprocess", "updateSequential", "touch")},
	"RuntimeUI":                {1006, phases(allPlay...), phases("preprocess")},
	"RuntimeUIConfiguration":   {1007, phases(allPlay...), phases("preprocess")},
	"LevelMemory":              {2000, phases(allPlay...), phases("preprocess", "updateSequential", "touch")},
	"LevelData":                {2001, phases(allPlay...), phases("preprocess")},
	"LevelOption":              {2002, phases(allPlay...), phases()},
	"LevelBucket":              {2003, phases(allPlay...), phases("preprocess")},
	"LevelScore":               {2004, phases(allPlay...), phases("preprocess")},
	"LevelLife":                {2005, phases(allPlay...), phases("preprocess")},
	"EngineRom":                {3000, phases(allPlay...), phases()},
	"EntityMemory":             {4000, phases(allPlay...), phases(allPlay...)},
	"EntityData":               {4001, phases(allPlay...), phases("preprocess")},
	"EntitySharedMemory":       {4002, phases(allPlay...), phases("preprocess", "updateSequential", "touch")},
	"EntityInfo":               {4003, phases(allPlay...), phases()},
	"EntityDespawn":            {4004, phases(allPlay...), phases(allPlay...)},
	"EntityInput":              {4005, phases(allPlay...), phases(allPlay...)},
	"EntityDataArray":          {4101, phases(allPlay...), phases("preprocess")},
	"EntitySharedMemoryArray":  {4102, phases(allPlay...), phases("preprocess", "updateSequential", "touch")},
	"EntityInfoArray":          {4103, phases(allPlay...), phases()},
	"ArchetypeLife":            {5000, phases(allPlay...), phases("preprocess")},
	"TemporaryMemory":          {TemporaryMemory, phases(allPlay...), phases(allPlay...)},
}

var previewBlocks = map[string]Entry{
	"RuntimeEnvironment":      {1000, phases(allPreview...), phases("preprocess")},
	"RuntimeCanvas":           {1001, phases(allPreview...), phases("preprocess")},
	"RuntimeSkinTransform":    {1002, phases(allPreview...), phases("preprocess")},
	"RuntimeUI":               {1003, phases(allPreview...), phases("preprocess")},
	"RuntimeUIConfiguration":  {1004, phases(allPreview...), phases("preprocess")},
	"PreviewData":             {2000, phases(allPreview...), phases("preprocess")},
	"PreviewOption":           {2001, phases(allPreview...), phases()},
	"EngineRom":               {3000, phases(allPreview...), phases()},
	"EntityData":              {4000, phases(allPreview...), phases("preprocess")},
	"EntitySharedMemory":      {4001, phases(allPreview...), phases("preprocess")},
	"EntityInfo":              {4002, phases(allPreview...), phases()},
	"EntityDataArray":         {4100, phases(allPreview...), phases("preprocess")},
	"EntitySharedMemoryArray": {4101, phases(allPreview...), phases("preprocess")},
	"EntityInfoArray":         {4102, phases(allPreview...), phases()},
	"TemporaryMemory":         {TemporaryMemory, phases(allPreview...), phases(allPreview...)},
}

var watchBlocks = map[string]Entry{
	"RuntimeEnvironment":       {1000, phases(allWatch...), phases("preprocess")},
	"RuntimeUpdate":            {1001, phases(allWatch...), phases()},
	"RuntimeSkinTransform":     {1002, phases(allWatch...), phases("preprocess", "updateSequential")},
	"RuntimeParticleTransform": {1003, phases(allWatch...), phases("preprocess", "updateSequential")},
	"RuntimeBackground":        {1004, phases(allWatch...), phases("preprocess", "updateSequential")},
	"RuntimeUI":                {1005, phases(allWatch...), phases("preprocess")},
	"RuntimeUIConfiguration":   {1006, phases(allWatch...), phases("preprocess")},
	"LevelMemory":              {2000, phases(allWatch...), phases("preprocess", "updateSequential")},
	"LevelData":                {2001, phases(allWatch...), phases("preprocess")},
	"LevelOption":              {2002, phases(allWatch...), phases()},
	"LevelBucket":              {2003, phases(allWatch...), phases("preprocess")},
	"LevelScore":               {2004, phases(allWatch...), phases("preprocess")},
	"LevelLife":                {2005, phases(allWatch...), phases("preprocess")},
	"EngineRom":                {3000, phases(allWatch...), phases()},
	"EntityMemory": {
		4000,
		phases("preprocess", "spawnTime", "despawnTime", "initialize", "updateSequential", "updateParallel", "terminate"),
		phases("preprocess", "spawnTime", "despawnTime", "initialize", "updateSequential", "updateParallel", "terminate"),
	},
	"EntityData": {
		4001,
		phases("preprocess", "spawnTime", "despawnTime", "initialize", "updateSequential", "updateParallel", "terminate"),
		phases("preprocess"),
	},
	"EntitySharedMemory": {
		4002,
		phases("preprocess", "spawnTime", "despawnTime", "initialize", "updateSequential", "updateParallel", "terminate"),
		phases("preprocess", "updateSequential"),
	},
	"EntityInfo": {
		4003,
		phases("preprocess", "spawnTime", "despawnTime", "initialize", "updateSequential", "updateParallel", "terminate"),
		phases(),
	},
	"EntityInput": {
		4004,
		phases("preprocess", "spawnTime", "despawnTime", "initialize", "updateSequential", "updateParallel", "terminate"),
		phases("preprocess"),
	},
	"EntityDataArray":         {4101, phases(allWatch...), phases("preprocess")},
	"EntitySharedMemoryArray": {4102, phases(allWatch...), phases("preprocess", "updateSequential")},
	"EntityInfoArray":         {4103, phases(allWatch...), phases()},
	"ArchetypeLife":           {5000, phases(allWatch...), phases("preprocess")},
	"TemporaryMemory":         {TemporaryMemory, phases(allWatch...), phases(allWatch...)},
}
