package console

// DemoScript runs two passenger batches followed by a service batch.
const DemoScript = `# first passenger batch
up outside 1 5
down outside 4 2
up outside 3 6
plan passenger
run passenger

# second passenger batch
up outside 1 9
down inside 5
up outside 4 12
down outside 10 2
plan passenger
run passenger

# service requests
service inside 13
service outside 13 2
service inside 13 15
plan service
run service
`
