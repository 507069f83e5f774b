package chat

// Cascade thresholds. Scores must be strictly greater than the floor.
const (
	// RetrievalFloor is the minimum similarity for a knowledge chunk to be
	// considered at all.
	RetrievalFloor = 0.5

	// AcceptanceFloor is the minimum similarity for the best knowledge chunk
	// or the best semantic keyword to be answered.
	AcceptanceFloor = 0.6

	// RetrievalTopK is the number of knowledge chunks retrieved.
	RetrievalTopK = 2

	// CandidateLogCount is the number of semantic keyword candidates logged.
	CandidateLogCount = 3
)

// Fixed response text.
const (
	KnowledgeSuffix = " AAR clinics offer diagnosis and treatment for this condition. Would you like help finding the nearest AAR clinic?"

	GenericFallback = "I understand you're asking about a medical condition. While I can provide information on many health topics, I don't have specific details about this condition. I recommend visiting an AAR clinic for personalized medical advice. Would you like me to help you find the nearest AAR clinic?"

	ErrorApology = "Sorry, I encountered an error processing your request. Please try again."

	EmptyPrompt = "Please enter a question."
)
