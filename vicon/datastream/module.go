package datastream

// LogModule names the client's logger under the root it is given.
const LogModule = "datastream"
